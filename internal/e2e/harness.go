// Package e2e drives the CLI end to end: isolated config, data, and
// store locations per test, a fake workspace API to sync against, and
// captured command output for assertions.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/pagesync/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness runs CLI commands in an isolated environment: a throwaway
// home directory, config and data paths scoped to the test, and a store
// file that never touches the real one.
type Harness struct {
	t       *testing.T
	homeDir string
}

// NewHarness creates an isolated harness. Config, data, and the store
// database all land under a per-test temp directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()
	h := &Harness{t: t, homeDir: homeDir}

	h.SetEnv("HOME", homeDir)
	h.SetEnv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	h.SetEnv("XDG_DATA_HOME", filepath.Join(homeDir, ".local", "share"))
	h.SetEnv("PAGESYNC_STORE_PATH", filepath.Join(homeDir, "pagesync.db"))

	return h
}

// SetEnv sets an environment variable for commands run through this
// harness. Restored automatically when the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.t.Setenv(key, value)
}

// UseWorkspace points the CLI at a fake workspace server.
func (h *Harness) UseWorkspace(ws *Workspace) {
	h.t.Helper()
	h.SetEnv("PAGESYNC_SOURCE_BASE_URL", ws.URL())
	h.SetEnv("PAGESYNC_SOURCE_COLLECTION", ws.Collection)
	h.SetEnv("PAGESYNC_SOURCE_TOKEN", "test-token")
}

// HomeDir returns the isolated home directory for this test.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// StorePath returns the store database location the harness configured.
func (h *Harness) StorePath() string {
	return filepath.Join(h.homeDir, "pagesync.db")
}

// Run executes a CLI command with the given arguments and captures its
// standard output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	args = append([]string{"pagesync"}, args...)

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Drain the pipe concurrently; output larger than the pipe buffer
	// would otherwise deadlock the command.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
