//go:build !unix

package executor

import "os/exec"

// setProcessGroup is a no-op where process groups are unavailable; the
// default Cancel kills the direct child only.
func setProcessGroup(*exec.Cmd) {}
