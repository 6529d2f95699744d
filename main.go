package main

import "dynai/cmd"

func main() {
	cmd.Execute()
}
