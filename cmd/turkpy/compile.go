// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mdhender/turkpy"
	"github.com/mdhender/turkpy/renderer"
	"github.com/mdhender/turkpy/watch"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func cmdTranspile() *cobra.Command {
	var outputFile string
	writeBeside := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save Python to file")
		cmd.Flags().BoolVarP(&writeBeside, "write", "w", writeBeside, "write each result next to its source with a .py extension")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "transpile <file>...",
		Short:        "transpile source files to Python",
		Long:         `Transpile source files to Python. A file named "-" is read from stdin.`,
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile != "" && (writeBeside || len(args) != 1) {
				return fmt.Errorf("--output needs exactly one file and no --write")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := transpileOptions(cfg, newLogger(cmd))

			failed := 0
			for _, path := range args {
				src, err := readInput(path)
				if err != nil {
					return err
				}
				code, err := turkpy.Transpile(string(src), opts...)
				if err != nil {
					reportDiagnostic(path, src, err)
					failed++
					continue
				}
				switch {
				case outputFile != "":
					if err := os.WriteFile(outputFile, []byte(code), 0o644); err != nil {
						return err
					}
					log.Printf("%s: wrote %d bytes\n", outputFile, len(code))
				case writeBeside && path != "-":
					out := watch.OutputPath(path)
					if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
						return err
					}
					log.Printf("%s: wrote %d bytes\n", out, len(code))
				default:
					fmt.Print(code)
				}
			}
			if failed != 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdLex() *cobra.Command {
	keywordsOnly := false
	showTrivia := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&keywordsOnly, "keywords", keywordsOnly, "print only keyword tokens")
		cmd.Flags().BoolVar(&showTrivia, "trivia", showTrivia, "print spaces and comments ahead of each token")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "lex <file>...",
		Short:        "print the tokens of source files",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				src, err := readInput(path)
				if err != nil {
					return err
				}
				if _, err := dumpTokens(cmd.OutOrStdout(), path, src, keywordsOnly, showTrivia); err != nil {
					reportDiagnostic(path, src, err)
					failed++
				}
			}
			if failed != 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

// dumpTokens writes one line per token: position, counter, kind and lexeme.
func dumpTokens(w io.Writer, path string, src []byte, keywordsOnly, showTrivia bool) (int, error) {
	toks, err := turkpy.Tokenize(src)
	if err != nil {
		return 0, err
	}
	for i, tok := range toks {
		if showTrivia {
			for _, tr := range tok.LeadingTrivia {
				_, _ = fmt.Fprintf(w, "%-35s %5s %-20s %q\n", fmt.Sprintf("%s:%d:%d:", path, tr.Line, tr.Column), "", tr.Kind, tr.Lexeme(src))
			}
		}
		if !keywordsOnly || tok.Kind.IsKeyword() {
			_, _ = fmt.Fprintf(w, "%-35s %5d %-20s %q\n", fmt.Sprintf("%s:%d:%d:", path, tok.Line, tok.Column), i+1, tok.Kind, tok.Lexeme(src))
		}
	}
	return len(toks), nil
}

func cmdParse() *cobra.Command {
	var outputFile string
	showPositions := true
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save parse to file")
		cmd.Flags().BoolVar(&showPositions, "positions", showPositions, "include line and column of every node")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "parse <file>",
		Short:        "parse a source file and print its syntax tree as JSON",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(args[0])
			if err != nil {
				return err
			}
			prog, err := turkpy.ParseSource(src)
			if err != nil {
				reportDiagnostic(args[0], src, err)
				return fmt.Errorf("%s: parse failed", args[0])
			}
			r, err := renderer.New(renderer.WithIndent("  "), renderer.WithPositions(showPositions))
			if err != nil {
				return err
			}
			data, err := r.Render(prog)
			if err != nil {
				return err
			}
			if outputFile == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return err
			}
			log.Printf("%s: wrote %d bytes\n", outputFile, len(data))
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdCheck() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "check <file>...",
		Short:        "report lexer and parser errors without generating code",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			failed := 0
			for _, path := range args {
				src, err := readInput(path)
				if err != nil {
					return err
				}
				diags := turkpy.Check(string(src))
				for _, diag := range diags {
					turkpy.PrintDiagnostic(os.Stderr, diag, path, src)
				}
				if len(diags) != 0 {
					failed++
				} else if !quiet {
					pterm.Printf("%s %s\n", pterm.LightGreen("ok"), path)
				}
			}
			if failed != 0 {
				pterm.Error.Printf("%d of %d files have errors\n", failed, len(args))
				return fmt.Errorf("check failed")
			}
			return nil
		},
	}
	return cmd
}

// reportDiagnostic prints err against src on stderr.
func reportDiagnostic(path string, src []byte, err error) {
	turkpy.PrintDiagnostic(os.Stderr, turkpy.DiagnosticFromError(err), path, src)
}
