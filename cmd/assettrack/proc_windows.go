//go:build windows

package main

import "os/exec"

func configureDaemonProc(cmd *exec.Cmd) {
	// Child processes already outlive the parent on Windows.
	_ = cmd
}
