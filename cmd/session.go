package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Check whether the service can accept requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		ready, err := session.IsReady(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ready: %s\n", verdict(ready))
		return nil
	},
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Create, restore or inspect the session checkpoint",
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Checkpoint the service and snapshot the local view",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		ok, err := session.CreateCheckpoint(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint created: %s\n", verdict(ok))
		return nil
	},
}

var checkpointRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Roll the service and the local view back to the last checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		ok, err := session.RestoreCheckpoint(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint restored: %s\n", verdict(ok))
		return nil
	},
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Describe the retained checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		cp, err := session.Checkpoint()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if cp == nil {
			fmt.Fprintln(out, "No checkpoint.")
			return nil
		}
		fmt.Fprintf(out, "Checkpoint taken %s: %d messages, %d categories\n",
			cp.Timestamp.Local().Format(time.RFC3339), len(cp.Messages), len(cp.Categories))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the service and clear all local state",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		if err := session.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Session reset."))
		return nil
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Detach from the service and discard the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Shutdown(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %q shut down.\n", appInstance.Config.Session.Name)
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointCreateCmd, checkpointRestoreCmd, checkpointShowCmd)
	rootCmd.AddCommand(readyCmd, checkpointCmd, resetCmd, shutdownCmd)
}
