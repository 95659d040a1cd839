// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Command turkpy transpiles Turkish-keyword programs to Python and runs
// the sample pipeline that builds the training dataset.
package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/mdhender/turkpy"
	"github.com/mdhender/turkpy/config"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().String("config", "", "load configuration from file (default: search for turkpy.toml)")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", false, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "turkpy",
		Short: "Turkish-keyword to Python transpiler",
		Long:  `Transpile Turkish-keyword programs to Python and build the training dataset`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("turkpy: version %q\n", turkpy.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdTranspile())
	cmdRoot.AddCommand(cmdLex())
	cmdRoot.AddCommand(cmdParse())
	cmdRoot.AddCommand(cmdCheck())
	cmdRoot.AddCommand(cmdIngest())
	cmdRoot.AddCommand(cmdWork())
	cmdRoot.AddCommand(cmdExport())
	cmdRoot.AddCommand(cmdDB())
	cmdRoot.AddCommand(cmdWatch())
	cmdRoot.AddCommand(cmdLSP())
	cmdRoot.AddCommand(cmdConfig())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(turkpy.Version().String())
				return nil
			}
			fmt.Println(turkpy.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

// loadConfig reads the file named by --config, or the nearest turkpy.toml.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newLogger returns a text logger on stderr whose level follows the
// --quiet, --verbose and --debug flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// transpileOptions maps the generator section of the configuration.
func transpileOptions(cfg *config.Config, logger *slog.Logger) []turkpy.Option {
	opts := []turkpy.Option{
		turkpy.WithGenerateOptions(
			turkpy.WithIndent(cfg.Generator.Indent),
			turkpy.WithConstructorName(cfg.Generator.Constructor),
		),
	}
	if logger != nil {
		opts = append(opts, turkpy.WithLogger(logger))
	}
	return opts
}

// readInput reads the named file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
