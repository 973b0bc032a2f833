// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint error-reporting helper
// shared by every outagefs subcommand's main().
package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
