package store

import "errors"

var (
	ErrNotFound      = errors.New("store: resource not found")
	ErrUnknownDriver = errors.New("store: unknown state driver")
)
