package shell_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/shell"
)

func newExecutor(t *testing.T) *shell.Executor {
	t.Helper()
	executor, err := shell.NewExecutor(shell.ExecutorConfig{})
	require.NoError(t, err)
	return executor
}

func TestExecutorRun(t *testing.T) {
	tests := map[string]struct {
		req       shell.Request
		expStdout string
		expStderr string
		expCode   int
		expErr    bool
	}{
		"Argv command should capture stdout": {
			req:       shell.Request{Argv: []string{"echo", "hello"}},
			expStdout: "hello",
		},

		"Raw command line should be tokenized with shell-quoting rules": {
			req:       shell.Request{Command: `echo 'hello world'`},
			expStdout: "hello world",
		},

		"Shell mode should pass the command to an interpreting shell": {
			req:       shell.Request{Command: "echo hello", Shell: true},
			expStdout: "hello",
		},

		"Stderr should be captured separately from stdout": {
			req:       shell.Request{Command: "echo oops >&2", Shell: true},
			expStderr: "oops",
		},

		"Non-zero exit without check should be reported, not raised": {
			req:     shell.Request{Argv: []string{"false"}},
			expCode: 1,
		},

		"Input should be supplied on the process stdin": {
			req:       shell.Request{Argv: []string{"cat"}, Input: "piped"},
			expStdout: "piped",
		},

		"Environment overlay should win over the ambient value": {
			req: shell.Request{
				Command: "echo $ADSYS_TEST_VAR",
				Shell:   true,
				Env:     map[string]string{"ADSYS_TEST_VAR": "overlay"},
			},
			expStdout: "overlay",
		},

		"Empty request should fail": {
			req:    shell.Request{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			t.Setenv("ADSYS_TEST_VAR", "ambient")

			result, err := newExecutor(t).Run(context.TODO(), test.req)

			if test.expErr {
				require.Error(err)
				return
			}
			require.NoError(err)
			assert.Equal(test.expStdout, result.Stdout)
			assert.Equal(test.expStderr, result.Stderr)
			assert.Equal(test.expCode, result.ExitCode)
			assert.Equal(test.expCode == 0, result.OK())
			assert.GreaterOrEqual(result.Duration, time.Duration(0))
		})
	}
}

func TestExecutorRunCheck(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	executor := newExecutor(t)

	// Strict mode failure carries the full result.
	result, err := executor.Run(context.TODO(), shell.Request{Argv: []string{"false"}, Check: true})
	require.Error(err)
	require.Nil(result)

	cmdErr := &model.CommandError{}
	require.ErrorAs(err, &cmdErr)
	assert.Equal(1, cmdErr.Result.ExitCode)
	assert.Equal("false", cmdErr.Result.Command)

	// The attached result has the same exit code as a non-strict run.
	unchecked, err := executor.Run(context.TODO(), shell.Request{Argv: []string{"false"}})
	require.NoError(err)
	assert.Equal(unchecked.ExitCode, cmdErr.Result.ExitCode)

	// Strict mode does not raise on success.
	result, err = executor.Run(context.TODO(), shell.Request{Argv: []string{"true"}, Check: true})
	require.NoError(err)
	assert.True(result.OK())
}

func TestExecutorRunTimeout(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	start := time.Now()
	result, err := newExecutor(t).Run(context.TODO(), shell.Request{
		Argv:    []string{"sleep", "10"},
		Timeout: 100 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.Error(err)
	require.Nil(result)
	assert.ErrorIs(err, model.ErrTimeout)
	assert.Less(elapsed, 2*time.Second)
}

func TestExecutorRunBackgroundChild(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	executor := newExecutor(t)

	// A background child inherits the output pipes. The run must return once
	// the command itself exits, not when the child finally lets go.
	start := time.Now()
	result, err := executor.Run(context.TODO(), shell.Request{
		Command: "sleep 30 & echo started",
		Shell:   true,
	})
	require.NoError(err)
	assert.Equal("started", result.Stdout)
	assert.Equal(0, result.ExitCode)
	assert.Less(time.Since(start), 10*time.Second)

	// Same with a timeout: killing the command must not wait on the child.
	start = time.Now()
	_, err = executor.Run(context.TODO(), shell.Request{
		Command: "sleep 30 & wait",
		Shell:   true,
		Timeout: 100 * time.Millisecond,
	})
	require.Error(err)
	assert.ErrorIs(err, model.ErrTimeout)
	assert.Less(time.Since(start), 10*time.Second)
}

func TestExecutorRunWorkingDir(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	result, err := newExecutor(t).Run(context.TODO(), shell.Request{Argv: []string{"pwd"}, Dir: dir})

	require.NoError(err)
	assert.Contains(result.Stdout, dir)
}
