// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Command turkc is the reference front end used by the parity stage.
//
//	turkc --dump-ast <file>   print the syntax tree as JSON
//	turkc <file>              print the generated Python
//
// It exits 0 on success, 1 when the source has errors, and 2 on usage
// or I/O errors.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy"
	"github.com/mdhender/turkpy/renderer"
	"github.com/spf13/cobra"
)

const (
	exitOK         = 0
	exitDiagnostic = 1
	exitUsage      = 2
)

// errDiagnostic marks a failure that has already been reported on stderr.
var errDiagnostic = errors.New("source has errors")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := cmdRoot(stdin)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errDiagnostic):
		return exitDiagnostic
	}
	_, _ = fmt.Fprintf(stderr, "turkc: %v\n", err)
	return exitUsage
}

func cmdRoot(stdin io.Reader) *cobra.Command {
	dumpAST := false
	noPositions := false
	showVersion := false
	indent := turkpy.DefaultIndent
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&dumpAST, "dump-ast", dumpAST, "print the syntax tree as JSON")
		cmd.Flags().IntVar(&indent, "indent", indent, "spaces per level in the generated Python")
		cmd.Flags().BoolVar(&noPositions, "no-positions", noPositions, "leave line and column out of the tree")
		cmd.Flags().BoolVar(&showVersion, "version", showVersion, "show version")
		return nil
	}
	var cmd = &cobra.Command{
		Use:           "turkc [--dump-ast] <file>",
		Short:         "reference compiler front end",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), turkpy.Version().Core())
				return nil
			}
			if len(args) != 1 {
				return errors.New("missing source file")
			}
			var src []byte
			var err error
			if args[0] == "-" {
				src, err = io.ReadAll(stdin)
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			if !dumpAST {
				code, err := turkpy.Transpile(string(src), turkpy.WithGenerateOptions(turkpy.WithIndent(indent)))
				if err != nil {
					turkpy.PrintDiagnostic(cmd.ErrOrStderr(), turkpy.DiagnosticFromError(err), args[0], src)
					return errDiagnostic
				}
				_, err = io.WriteString(cmd.OutOrStdout(), code)
				return err
			}

			prog, err := turkpy.ParseSource(src)
			if err != nil {
				turkpy.PrintDiagnostic(cmd.ErrOrStderr(), turkpy.DiagnosticFromError(err), args[0], src)
				return errDiagnostic
			}
			r, err := renderer.New(renderer.WithIndent(""), renderer.WithPositions(!noPositions))
			if err != nil {
				return err
			}
			data, err := r.Render(prog)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	if err := addFlags(cmd); err != nil {
		panic(err)
	}
	return cmd
}
