package helmcli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Runner executes a command with the given stdin and returns its output.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands as child processes. Arguments are passed as a
// vector, never through a shell.
type ExecRunner struct {
	// Env is appended to the current process environment.
	Env []string
}

// Run implements [Runner].
func (r ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	// #nosec G204 -- argv invocation, arguments are validated record fields
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), r.Env...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
