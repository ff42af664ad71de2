//go:build !unix

package grim

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

func kill(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
