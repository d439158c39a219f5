//go:build !unix

package osascript

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}
