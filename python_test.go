// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// lookPython returns the path of python3 or skips the test.
func lookPython(t *testing.T) string {
	t.Helper()
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not installed")
	}
	return python
}

// runPython feeds stdin to python3 with args and returns stdout.
func runPython(t *testing.T, python, stdin string, args ...string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("python3 %v: %v\n%s\ninput:\n%s", args, err, stderr.String(), stdin)
	}
	return stdout.String()
}

const parsePython = "import ast, sys; ast.parse(sys.stdin.read())"

func TestGenerated_ParsesAsPython(t *testing.T) {
	python := lookPython(t)

	goldens, err := filepath.Glob(filepath.Join(testdataPath, "*.py.golden"))
	if err != nil {
		t.Fatal(err)
	}
	if len(goldens) == 0 {
		t.Fatalf("no golden files in %s", testdataPath)
	}
	for _, path := range goldens {
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			runPython(t, python, string(data), "-c", parsePython)
		})
	}
	for _, tc := range scenarios {
		t.Run(tc.name, func(t *testing.T) {
			runPython(t, python, transpile(t, tc.input), "-c", parsePython)
		})
	}
}

func TestGenerated_RunsUnderPython(t *testing.T) {
	python := lookPython(t)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "function rebinds module variable",
			input: "sayaç = 0\nfonksiyon artır() { sayaç = sayaç + 1 }\nartır()\nartır()\nyazdır(sayaç)",
			want:  "2\n",
		},
		{
			name:  "nested function rebinds enclosing variable",
			input: "fonksiyon f() { n = 0; fonksiyon g() { n = n + 1 } g(); g(); dön n }\nyazdır(f())",
			want:  "2\n",
		},
		{
			name:  "parameter shadows module variable",
			input: "x = 1\nfonksiyon f(x) { x = 2 }\nf(5)\nyazdır(x)",
			want:  "1\n",
		},
		{
			name:  "constructor and method",
			input: "sınıf Nokta { fonksiyon kurucu(x) { bu.x = x; dön } fonksiyon iki() { dön bu.x * 2 } }\nyazdır(Nokta(21).iki())",
			want:  "42\n",
		},
		{
			name:  "decomposed letter names one variable",
			input: "değer = 1\ndeg\u0306er = değer + 1\nyazdır(değer)",
			want:  "2\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := runPython(t, python, transpile(t, tc.input), "-"); got != tc.want {
				t.Errorf("stdout = %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("golden kapsam", func(t *testing.T) {
		input, err := os.ReadFile(filepath.Join(testdataPath, "kapsam.tr"))
		if err != nil {
			t.Fatal(err)
		}
		if got, want := runPython(t, python, transpile(t, string(input)), "-"), "6\n7\n"; got != want {
			t.Errorf("stdout = %q, want %q", got, want)
		}
	})
}
