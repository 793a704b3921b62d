// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pandoc-live/internal/logger"
)

// shRunner runs /bin/sh so the runner can be exercised without pandoc.
func shRunner(t *testing.T) *ProcessRunner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return NewLocalRunner("sh", t.TempDir(), logger.Discard())
}

func TestProcessRunner_Run(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		input      string
		want       string
		wantCode   int
		wantStderr string
		wantErr    bool
	}{
		{
			name:  "stdin is piped to stdout",
			args:  []string{"-c", "cat"},
			input: "# Title\n",
			want:  "# Title\n",
		},
		{
			name:  "stderr on success is not an error",
			args:  []string{"-c", "echo warning >&2; printf ok"},
			want:  "ok",
		},
		{
			name:       "non-zero exit",
			args:       []string{"-c", "echo 'Unknown output format nope' >&2; exit 21"},
			wantErr:    true,
			wantCode:   21,
			wantStderr: "Unknown output format nope\n",
		},
		{
			name:  "environment forces UTF-8 locale",
			args:  []string{"-c", "printf %s \"$LANG\""},
			want:  "en_US.UTF-8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := shRunner(t)
			got, err := r.Run(context.Background(), tt.args, tt.input)
			if tt.wantErr {
				var ce *ConversionError
				require.ErrorAs(t, err, &ce)
				require.NotNil(t, ce.ExitCode)
				assert.Equal(t, tt.wantCode, *ce.ExitCode)
				assert.Equal(t, tt.wantStderr, ce.Stderr)
				assert.Equal(t, tt.args, ce.Args)
				assert.Equal(t, "exited with code 21", ce.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessRunner_SpawnFailure(t *testing.T) {
	r := NewLocalRunner("/nonexistent/pandoc", "", logger.Discard())
	_, err := r.Run(context.Background(), []string{"--version"}, "")

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "failed to start", ce.Message)
	assert.Nil(t, ce.ExitCode)
	assert.NotEmpty(t, ce.Stderr)
	assert.Equal(t, []string{"--version"}, ce.Args)
}

func TestProcessRunner_CancelKillsProcess(t *testing.T) {
	r := shRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, []string{"-c", "exec sleep 10"}, "")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "subprocess should be killed on cancel")

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Nil(t, ce.ExitCode)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestProcessRunner_AlreadyCanceled(t *testing.T) {
	r := shRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []string{"-c", "cat"}, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
