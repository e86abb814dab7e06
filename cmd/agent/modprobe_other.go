//go:build !linux

package main

import "errors"

func LoadVSockModule() error {
	return errors.New("VM sockets are only supported on Linux")
}
