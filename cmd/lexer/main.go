// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Command lexer prints the tokens of each source file named on the command line.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mdhender/turkpy"
	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.Lshortfile)

	debug := false
	keywordsOnly := false
	showTrivia := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&debug, "debug", debug, "log lexer traces")
		cmd.Flags().BoolVar(&keywordsOnly, "keywords", keywordsOnly, "print only keyword tokens")
		cmd.Flags().BoolVar(&showTrivia, "trivia", showTrivia, "print spaces and comments ahead of each token")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "lexer <file>...",
		Short:        "print the tokens of source files",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var logger *slog.Logger
			if debug {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
			for _, path := range args {
				started := time.Now()
				n, err := scan(path, logger, keywordsOnly, showTrivia)
				if err != nil {
					fmt.Printf("%s: failed %v\n", path, err)
					continue
				}
				fmt.Printf("%s: %d tokens in %v\n", path, n, time.Since(started))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scan(path string, logger *slog.Logger, keywordsOnly, showTrivia bool) (int, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	file := filepath.Base(path)
	s := turkpy.NewLexer(file, input, logger)
	tokenCounter, maxTokens := 0, len(input)+1
	for tokenCounter < maxTokens {
		tok, err := s.Scan()
		if err != nil {
			return tokenCounter, err
		}
		tokenCounter++
		if showTrivia {
			for _, tr := range tok.LeadingTrivia {
				fmt.Printf("%-35s %5s %-20s %q\n", fmt.Sprintf("%s:%d:%d:", file, tr.Line, tr.Column), "", tr.Kind, tr.Lexeme(input))
			}
		}
		if !keywordsOnly || tok.Kind.IsKeyword() {
			fmt.Printf("%-35s %5d %-20s %q\n", fmt.Sprintf("%s:%d:%d:", file, tok.Line, tok.Column), tokenCounter, tok.Kind, tok.Lexeme(input))
		}
		if tok.Kind == turkpy.EndOfInput {
			break
		}
	}
	return tokenCounter, nil
}
