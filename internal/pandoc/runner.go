// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pandoc runs the external pandoc converter as a subprocess.
//
// A Runner streams text to pandoc's standard input and returns its standard
// output. Failures are reported as *ConversionError values carrying the
// captured stderr and exit code. A Handler wraps a Runner with the readiness
// probe and the process-lifetime working directory.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pdiddy/pandoc-live/internal/container"
	"github.com/pdiddy/pandoc-live/internal/logger"
)

// Runner executes pandoc with args, feeding input on stdin.
type Runner interface {
	Run(ctx context.Context, args []string, input string) (string, error)
}

// waitDelay bounds how long Wait keeps reading output after the process was
// killed, in case a grandchild (a pandoc filter) still holds the pipes.
const waitDelay = 5 * time.Second

// commandFunc builds the command for one invocation.
type commandFunc func(ctx context.Context, args []string) *exec.Cmd

// ProcessRunner is the Runner backed by os/exec. There is no implicit
// timeout; cancel ctx to kill the subprocess.
type ProcessRunner struct {
	name    string
	command commandFunc
	log     *logger.Logger
}

// NewLocalRunner runs binary from PATH with workDir as its working
// directory. An empty workDir inherits the current directory.
func NewLocalRunner(binary, workDir string, log *logger.Logger) *ProcessRunner {
	return &ProcessRunner{
		name: binary,
		command: func(ctx context.Context, args []string) *exec.Cmd {
			cmd := exec.CommandContext(ctx, binary, args...)
			cmd.Dir = workDir
			cmd.Env = append(os.Environ(), "LANG=en_US.UTF-8")
			return cmd
		},
		log: log,
	}
}

// NewContainerRunner runs pandoc from image through a container runtime.
func NewContainerRunner(rt container.Runtime, image string, log *logger.Logger) *ProcessRunner {
	return &ProcessRunner{
		name: rt.Name() + ":" + image,
		command: func(ctx context.Context, args []string) *exec.Cmd {
			return rt.Command(ctx, image, args)
		},
		log: log,
	}
}

// Name identifies the backend for diagnostics.
func (r *ProcessRunner) Name() string { return r.name }

// Run starts pandoc, writes input to its stdin, closes it, and waits for the
// process to exit. It returns stdout on exit code 0, even when stderr is not
// empty. The process has always exited or been killed when Run returns.
func (r *ProcessRunner) Run(ctx context.Context, args []string, input string) (string, error) {
	cmd := r.command(ctx, args)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	r.log.Debug("executing pandoc", "backend", r.name, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", canceled(ctxErr, "", args)
		}
		return "", &ConversionError{
			Message: "failed to start",
			Stderr:  err.Error(),
			Args:    args,
			Err:     err,
		}
	}

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return "", canceled(ctxErr, stderr.String(), args)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return "", &ConversionError{
				Message:  fmt.Sprintf("exited with code %d", code),
				Stderr:   stderr.String(),
				ExitCode: &code,
				Args:     args,
				Err:      err,
			}
		}
		return "", &ConversionError{
			Message: "failed to run",
			Stderr:  err.Error(),
			Args:    args,
			Err:     err,
		}
	}

	if stderr.Len() > 0 {
		r.log.PandocStderr(args, stderr.String())
	}
	return stdout.String(), nil
}

func canceled(ctxErr error, stderr string, args []string) *ConversionError {
	return &ConversionError{
		Message: "canceled: " + ctxErr.Error(),
		Stderr:  stderr,
		Args:    args,
		Err:     ctxErr,
	}
}
