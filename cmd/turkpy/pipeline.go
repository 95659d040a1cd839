// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mdhender/turkpy/config"
	"github.com/mdhender/turkpy/dataset"
	"github.com/mdhender/turkpy/model"
	"github.com/mdhender/turkpy/pipelines/stages"
	"github.com/mdhender/turkpy/runner"
	store "github.com/mdhender/turkpy/stores/sqlite"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const defaultDataDir = "data"

// openStore opens the configured database, creating it on first use.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	path := cfg.Database.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := store.InitDatabase(path); err != nil {
			return nil, err
		}
		log.Printf("%s: created database\n", path)
	}
	return store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: path})
}

func cmdIngest() *cobra.Command {
	var dataDir = defaultDataDir
	var jsonFile string
	var label string
	var request string
	createdBy := os.Getenv("USER")
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&createdBy, "created-by", createdBy, "name recorded on the batch")
		cmd.Flags().StringVar(&dataDir, "data", dataDir, "directory that holds ingested sources")
		cmd.Flags().StringVar(&jsonFile, "json", jsonFile, "load samples from a JSON seed file")
		cmd.Flags().StringVar(&label, "label", label, "batch label (default: the current time)")
		cmd.Flags().StringVar(&request, "request", request, "request text recorded on every file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "ingest [file.tr]...",
		Short: "add samples to the database and queue them for transpiling",
		Long: `Add samples to the database and queue them for transpiling.
A file "name.out" next to "name.tr" is recorded as the expected output.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && jsonFile == "" {
				return fmt.Errorf("nothing to ingest: give files or --json")
			}
			ctx := context.Background()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			svc := stages.NewIngestService(db, dataDir)

			if label == "" {
				label = time.Now().UTC().Format(time.RFC3339)
			}
			batchID, err := db.InsertBatch(ctx, &model.Batch{Label: label, CreatedBy: createdBy, CreatedAt: time.Now().UTC()})
			if err != nil {
				return err
			}

			var queued, duplicates int
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				req := stages.IngestRequest{
					Filename: filepath.Base(path),
					Request:  request,
					Source:   src,
				}
				if out, err := os.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".out"); err == nil {
					req.ExpectedOutput = string(out)
				}
				res, err := svc.IngestFile(ctx, batchID, req)
				if err != nil {
					return err
				}
				if res.Duplicate {
					duplicates++
					log.Printf("%s: duplicate of sample %d\n", path, res.SampleID)
					continue
				}
				queued++
			}

			if jsonFile != "" {
				ids, err := db.LoadSamplesFromJSON(ctx, jsonFile, &batchID)
				if err != nil {
					return err
				}
				results, err := svc.QueueExisting(ctx, ids)
				queued += len(results)
				if err != nil {
					return err
				}
			}

			pterm.Success.Printf("batch %d: queued %d samples, skipped %d duplicates\n", batchID, queued, duplicates)
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdWork() *cobra.Command {
	var dataDir = defaultDataDir
	var limit int
	var stageNames []string
	enableParity := false
	retryFailed := false
	runPython := true
	showFailed := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dataDir, "data", dataDir, "directory that holds ingested sources")
		cmd.Flags().BoolVar(&enableParity, "parity", enableParity, "compare trees with the native compiler")
		cmd.Flags().IntVar(&limit, "limit", limit, "stop each stage after this many jobs (0 for no limit)")
		cmd.Flags().BoolVar(&retryFailed, "retry-failed", retryFailed, "queue failed jobs again before starting")
		cmd.Flags().BoolVar(&runPython, "run", runPython, "run generated code to verify it")
		cmd.Flags().BoolVar(&showFailed, "show-failed", showFailed, "list failed jobs after the run")
		cmd.Flags().StringSliceVar(&stageNames, "stage", []string{model.WorkStageTranspile, model.WorkStageVerify, model.WorkStageParity}, "stages to run, in order")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "work",
		Short:        "process queued pipeline jobs",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			w := stages.NewWorkerService(db, dataDir, "")
			w.SetLogger(logger)
			w.SetTranspileOptions(transpileOptions(cfg, nil)...)
			if runPython {
				python, err := runner.New(cfg.Python.Command, cfg.Python.Timeout())
				if err != nil {
					return err
				}
				python.Logger = logger
				w.SetPython(python)
			}
			if enableParity {
				compiler, err := runner.New(cfg.Compiler.Command, cfg.Compiler.Timeout())
				if err != nil {
					return err
				}
				compiler.Logger = logger
				w.SetCompiler(compiler)
			}

			for _, stage := range stageNames {
				if retryFailed {
					n, err := db.ResetFailedWork(ctx, stage)
					if err != nil {
						return err
					}
					if n != 0 {
						log.Printf("%s: queued %d failed jobs again\n", stage, n)
					}
				}
				started := time.Now()
				dr, err := w.Drain(ctx, stage, limit)
				pterm.Printf("%s %-10s %d jobs, %s failed, %v\n",
					pterm.LightCyan("stage"), stage, dr.Processed,
					pterm.Red(strconv.Itoa(dr.Failed)), time.Since(started).Round(time.Millisecond))
				if err != nil {
					return err
				}
			}

			if err := printSummary(ctx, db); err != nil {
				return err
			}
			if showFailed {
				for _, stage := range stageNames {
					failed, err := db.GetFailedWork(ctx, stage)
					if err != nil {
						return err
					}
					for _, job := range failed {
						code, msg := "", ""
						if job.ErrorCode != nil {
							code = *job.ErrorCode
						}
						if job.ErrorMessage != nil {
							msg = *job.ErrorMessage
						}
						pterm.Printf("%s sample %d %s: %s\n", pterm.Red(job.Stage), job.SampleID, pterm.Yellow(code), msg)
					}
				}
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

// printSummary renders job counts per stage and status.
func printSummary(ctx context.Context, db model.Store) error {
	summary, err := db.GetWorkSummary(ctx)
	if err != nil {
		return err
	}
	statuses := []string{model.WorkStatusQueued, model.WorkStatusRunning, model.WorkStatusOk, model.WorkStatusFailed}
	data := pterm.TableData{append([]string{"stage"}, statuses...)}
	var names []string
	for stage := range summary {
		names = append(names, stage)
	}
	sort.Strings(names)
	for _, stage := range names {
		row := []string{stage}
		for _, status := range statuses {
			row = append(row, strconv.Itoa(summary[stage][status]))
		}
		data = append(data, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func cmdExport() *cobra.Command {
	var batchID int64
	var outputFile string
	verifiedOnly := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().Int64Var(&batchID, "batch", batchID, "export only this batch")
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, `output file, "-" for stdout (default: dataset.output)`)
		cmd.Flags().BoolVar(&verifiedOnly, "verified-only", verifiedOnly, "export only samples whose translation was verified")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "export",
		Short:        "write the samples as a JSONL training corpus",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			filter := model.SampleFilter{VerifiedOnly: verifiedOnly}
			if cmd.Flags().Changed("batch") {
				filter.BatchID = &batchID
			}
			if outputFile == "" {
				outputFile = cfg.Dataset.Output
			}
			exp := dataset.NewExporter(db, cfg.Dataset.Instruction)
			if outputFile == "-" {
				_, err := exp.WriteTo(ctx, os.Stdout, filter)
				return err
			}
			n, err := exp.Export(ctx, outputFile, filter)
			if err != nil {
				return err
			}
			pterm.Success.Printf("%s: wrote %d records\n", outputFile, n)
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdDB() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "db",
		Short: "manage the pipeline database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:          "init",
		Short:        "create the database file",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := store.InitDatabase(cfg.Database.Path); err != nil {
				return err
			}
			log.Printf("%s: created database\n", cfg.Database.Path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "compact",
		Short:        "checkpoint and vacuum the database file",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return store.CompactDatabase(cfg.Database.Path)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "stats",
		Short:        "show row counts and job totals",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: cfg.Database.Path})
			if err != nil {
				return err
			}
			defer db.Close()
			stats, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			log.Printf("  %-14s %d\n", "batches", stats.Batches)
			log.Printf("  %-14s %d\n", "samples", stats.Samples)
			log.Printf("  %-14s %d\n", "translations", stats.Translations)
			log.Printf("  %-14s %d\n", "verified", stats.Verified)
			return printSummary(ctx, db)
		},
	})
	return cmd
}
