// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdhender/turkpy"
	"github.com/mdhender/turkpy/config"
	"github.com/mdhender/turkpy/lsp"
	"github.com/mdhender/turkpy/watch"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func cmdWatch() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "watch <path>...",
		Short:        "transpile source files whenever they change",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			opts := transpileOptions(cfg, nil)
			fs := afero.NewOsFs()

			w, err := watch.New(watch.Config{
				Debounce:   cfg.Watch.Debounce(),
				Extensions: cfg.Watch.Extensions,
				Logger:     logger,
			}, func(path string) {
				out, err := watch.TranspileFile(fs, path, opts...)
				if err != nil {
					if src, rerr := afero.ReadFile(fs, path); rerr == nil {
						reportDiagnostic(path, src, err)
					} else {
						pterm.Error.Printf("%s: %v\n", path, err)
					}
					return
				}
				pterm.Printf("%s %s\n", pterm.LightGreen("wrote"), out)
			})
			if err != nil {
				return err
			}
			for _, path := range args {
				if err := w.Add(path); err != nil {
					return err
				}
			}
			pterm.Info.Printf("watching %d paths, press Ctrl-C to stop\n", len(args))
			return w.Run(ctx)
		},
	}
	return cmd
}

func cmdLSP() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "lsp",
		Short:        "run the language server on stdin and stdout",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol, so everything else goes to stderr
			debug, _ := cmd.Flags().GetBool("debug")
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			logger.Info("lsp", "version", turkpy.Version().Core())
			return lsp.New(logger).RunStdio()
		},
	}
	return cmd
}

func cmdConfig() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	cmd.AddCommand(cmdConfigInit())
	cmd.AddCommand(&cobra.Command{
		Use:          "show",
		Short:        "print the configuration in effect",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Printf("compiler.command         %q\n", cfg.Compiler.Command)
			fmt.Printf("compiler.timeout_seconds %d\n", cfg.Compiler.TimeoutSeconds)
			fmt.Printf("python.command           %q\n", cfg.Python.Command)
			fmt.Printf("python.timeout_seconds   %d\n", cfg.Python.TimeoutSeconds)
			fmt.Printf("generator.indent         %d\n", cfg.Generator.Indent)
			fmt.Printf("generator.constructor    %q\n", cfg.Generator.Constructor)
			fmt.Printf("database.path            %q\n", cfg.Database.Path)
			fmt.Printf("dataset.output           %q\n", cfg.Dataset.Output)
			fmt.Printf("watch.debounce_ms        %d\n", cfg.Watch.DebounceMS)
			fmt.Printf("watch.extensions         %q\n", cfg.Watch.Extensions)
			return nil
		},
	})
	return cmd
}

func cmdConfigInit() *cobra.Command {
	force := false
	path := config.FileName
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&force, "force", force, "overwrite an existing file")
		cmd.Flags().StringVarP(&path, "output", "o", path, "file to write")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "init",
		Short:        "write a configuration file with the default settings",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Write(path, config.Default(), force); err != nil {
				return err
			}
			log.Printf("%s: created\n", path)
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
