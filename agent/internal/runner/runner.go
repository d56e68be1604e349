// Package runner executes dispatched shell commands.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

const defaultTimeout = 10 * time.Minute

type Result struct {
	Output string
	Status string
}

// Run executes the command through the shell and captures combined output.
// Status mirrors the ledger's terminal states.
func Run(ctx context.Context, command string) Result {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	out := buf.String()
	if err != nil {
		if out == "" {
			out = err.Error()
		}
		return Result{Output: out, Status: "failed"}
	}
	return Result{Output: out, Status: "completed"}
}
