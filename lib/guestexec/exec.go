// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package guestexec runs the user-supplied guest shell command against
// a mounted file, optionally under sudo. It never interprets the
// command beyond substituting $1 for the mounted file's path.
package guestexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Run executes shell as "sh -c shell sh path", so "$1" inside shell
// expands to path, matching the guest command contract. Stdout/stderr
// are connected to this process's own. If sudo is set, the command is
// run as "sudo sh -c ...": the core prepends an elevation helper and
// does not otherwise interpret the command.
func Run(ctx context.Context, shell string, path string, sudo bool) error {
	args := []string{"-c", shell, "sh", path}
	name := "sh"
	if sudo {
		args = append([]string{"sh"}, args...)
		name = "sudo"
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("guestexec: running guest command: %w", err)
	}
	return nil
}

// ExitError reports the guest command's non-zero exit status without
// wrapping it as a generic error; callers that need to propagate the
// exact exit code (the driver's "mount" verb) check for it with a
// type assertion on the returned error.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("guestexec: guest command exited with status %d", e.Code)
}
