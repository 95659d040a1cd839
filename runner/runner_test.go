// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package runner_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It stands in for the native
// compiler when re-executed by helperRunner.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("TURKPY_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if os.Getenv("HELPER_MODE") == "echo" {
		// stands in for "python3 -"
		data, _ := io.ReadAll(os.Stdin)
		fmt.Print(strings.ToUpper(string(data)))
		os.Exit(0)
	}
	if len(args) != 3 || args[1] != "--dump-ast" {
		fmt.Fprintf(os.Stderr, "usage: turkc --dump-ast <path>\n")
		os.Exit(2)
	}
	switch os.Getenv("HELPER_MODE") {
	case "ok":
		fmt.Printf(`{"type":"Program","line":1,"column":1,"body":[]}`)
	case "reject":
		fmt.Fprintf(os.Stderr, "%s:1:5: expected expression, found \"}\"\n", args[2])
		os.Exit(1)
	case "garbage":
		fmt.Printf("not json")
	case "sleep":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func helperRunner(t *testing.T, mode string, timeout time.Duration) *runner.Runner {
	t.Helper()
	t.Setenv("TURKPY_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_MODE", mode)
	return &runner.Runner{
		Command: []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		Timeout: timeout,
	}
}

func TestNew_SplitsCommand(t *testing.T) {
	r, err := runner.New(`"/opt/my tools/turkc" --strict`, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/my tools/turkc", "--strict"}, r.Command)

	_, err = runner.New("  ", time.Second)
	assert.Error(t, err)
	_, err = runner.New(`turkc "unterminated`, time.Second)
	assert.Error(t, err)
}

func TestDumpAST_OK(t *testing.T) {
	r := helperRunner(t, "ok", 5*time.Second)
	res, err := r.DumpAST(context.Background(), "örnek.tr")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Empty(t, res.Stderr)
	assert.JSONEq(t, `{"type":"Program","line":1,"column":1,"body":[]}`, res.Stdout)
}

func TestDumpAST_Rejected(t *testing.T) {
	r := helperRunner(t, "reject", 5*time.Second)
	res, err := r.DumpAST(context.Background(), "bozuk.tr")
	var toolErr *runner.ExternalToolError
	require.True(t, errors.As(err, &toolErr), "err = %v", err)
	assert.Equal(t, runner.KindExit, toolErr.Kind)
	assert.Equal(t, 1, toolErr.ExitCode)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "bozuk.tr:1:5")
}

func TestDumpAST_Malformed(t *testing.T) {
	r := helperRunner(t, "garbage", 5*time.Second)
	_, err := r.DumpAST(context.Background(), "x.tr")
	var toolErr *runner.ExternalToolError
	require.True(t, errors.As(err, &toolErr), "err = %v", err)
	assert.Equal(t, runner.KindMalformed, toolErr.Kind)
}

func TestDumpAST_Timeout(t *testing.T) {
	r := helperRunner(t, "sleep", 200*time.Millisecond)
	started := time.Now()
	_, err := r.DumpAST(context.Background(), "x.tr")
	var toolErr *runner.ExternalToolError
	require.True(t, errors.As(err, &toolErr), "err = %v", err)
	assert.Equal(t, runner.KindTimeout, toolErr.Kind)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestDumpAST_Missing(t *testing.T) {
	r := &runner.Runner{Command: []string{"/no/such/turkc-binary"}, Timeout: time.Second}
	_, err := r.DumpAST(context.Background(), "x.tr")
	var toolErr *runner.ExternalToolError
	require.True(t, errors.As(err, &toolErr), "err = %v", err)
	assert.Equal(t, runner.KindMissing, toolErr.Kind)
}

func TestParity(t *testing.T) {
	r := helperRunner(t, "ok", 5*time.Second)
	m, err := r.Parity(context.Background(), "x.tr", []byte(`{"type":"Program","line":3,"column":7,"body":[]}`))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCompareAST(t *testing.T) {
	external := []byte(`{"type":"Program","body":[{"type":"Print","line":1,"value":{"type":"Literal","kind":"number","value":1}}]}`)

	m, err := runner.CompareAST(external, []byte(`{"type":"Program","body":[{"type":"Print","line":9,"value":{"type":"Literal","kind":"number","value":1}}]}`))
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = runner.CompareAST(external, []byte(`{"type":"Program","body":[{"type":"Print","value":{"type":"Literal","kind":"number","value":2}}]}`))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "$.body[0].value.value", m.Path)

	m, err = runner.CompareAST(external, []byte(`{"type":"Program","body":[]}`))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "$.body.length", m.Path)

	_, err = runner.CompareAST([]byte("{"), external)
	assert.Error(t, err)
}

func TestRunInput_FeedsStdin(t *testing.T) {
	r := helperRunner(t, "echo", 5*time.Second)
	res, err := r.RunInput(context.Background(), "print(1)\n", "-")
	require.NoError(t, err)
	assert.Equal(t, "PRINT(1)\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}
