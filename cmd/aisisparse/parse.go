package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/aisis-planner-go/internal/aisis"
	"github.com/garyellow/aisis-planner-go/internal/config"
	"github.com/garyellow/aisis-planner-go/internal/export"
	"github.com/garyellow/aisis-planner-go/internal/importer"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/storage"
)

const stdinName = "-"

type runOptions struct {
	format      string
	xlsxPath    string
	concurrency int
	persist     bool
	logLevel    string
	termCode    string
	department  string
}

// fileResult is one parsed input as printed.
type fileResult struct {
	File      string        `json:"file" yaml:"file"`
	RunID     string        `json:"run_id" yaml:"run_id"`
	Persisted bool          `json:"persisted,omitempty" yaml:"persisted,omitempty"`
	Outcome   aisis.Outcome `json:"outcome" yaml:"outcome"`
}

func defaultConcurrency() int {
	return min(runtime.NumCPU(), 8)
}

func curriculumCmd(opts *runOptions) *cobra.Command {
	return kindCmd(opts, aisis.KindCurriculum,
		"Parse official curricula",
		"Parses a curriculum copied from the AISIS \"View Official Curriculum\" page or its page source.")
}

func scheduleCmd(opts *runOptions) *cobra.Command {
	return kindCmd(opts, aisis.KindSchedule,
		"Parse personal class schedules",
		"Parses the weekly grid or list from \"My Class Schedule\".")
}

func departmentCmd(opts *runOptions) *cobra.Command {
	cmd := kindCmd(opts, aisis.KindDepartment,
		"Parse department class schedules",
		"Parses the bulk table from \"Class Schedule\" for one department and term.")
	cmd.Flags().StringVar(&opts.termCode, "term", "", "term code to stamp on every block, e.g. 2024-1")
	cmd.Flags().StringVar(&opts.department, "department", "", "department code to stamp on every block")
	return cmd
}

func gradesCmd(opts *runOptions) *cobra.Command {
	return kindCmd(opts, aisis.KindGrades,
		"Parse grade listings",
		"Parses the \"View Grades\" listing.")
}

func kindCmd(opts *runOptions, kind aisis.Kind, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " FILE...",
		Short: short,
		Long:  long,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), kind, args, *opts)
		},
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, kind aisis.Kind, files []string, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if n := countStdin(files); n > 1 {
		return fmt.Errorf("standard input can be read only once, got %q %d times", stdinName, n)
	}

	cfg, err := config.LoadForMode(config.CLIMode)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(opts.logLevel, stderr)

	imOpts := []importer.Option{
		importer.WithTimeout(cfg.ParseTimeout),
		importer.WithMaxInputBytes(cfg.MaxInputBytes),
	}
	if opts.persist {
		db, err := storage.New(ctx, cfg.SQLitePath())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = db.Close() }()
		imOpts = append(imOpts, importer.WithStore(db))
	}
	im := importer.New(log, imOpts...)

	results, err := parseAll(ctx, im, stdin, kind, files, opts)
	if err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		if err := writeWorkbook(opts.xlsxPath, results); err != nil {
			return err
		}
	}

	var doc any = results
	if len(results) == 1 {
		doc = results[0]
	}
	if err := export.Write(stdout, format, doc); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	var empty []string
	for _, r := range results {
		if r.Outcome.Failed() {
			empty = append(empty, r.File)
		}
	}
	if len(empty) > 0 {
		return fmt.Errorf("%d of %d inputs produced no records: %s", len(empty), len(results), strings.Join(empty, ", "))
	}
	return nil
}

// parseAll parses files concurrently, at most opts.concurrency at a time.
// Results keep the order of files.
func parseAll(ctx context.Context, im *importer.Importer, stdin io.Reader, kind aisis.Kind, files []string, opts runOptions) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.concurrency, 1))
	for i, name := range files {
		g.Go(func() error {
			input, err := readInput(stdin, name)
			if err != nil {
				return err
			}
			resp, err := im.Run(ctx, importer.Request{
				Kind:    kind,
				Input:   input,
				Options: aisis.Options{TermCode: opts.termCode, Department: opts.department},
				Persist: opts.persist,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = fileResult{
				File:      name,
				RunID:     resp.RunID,
				Persisted: resp.Persisted,
				Outcome:   resp.Outcome,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func countStdin(files []string) int {
	n := 0
	for _, f := range files {
		if f == stdinName {
			n++
		}
	}
	return n
}

func writeWorkbook(path string, results []fileResult) error {
	var sheets []export.Sheet
	for _, r := range results {
		sheets = append(sheets, export.SheetsFor(sheetTitle(r.File), r.Outcome.Result)...)
	}
	if len(sheets) == 0 {
		return fmt.Errorf("no records to write to %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := export.WriteXLSX(f, sheets); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func sheetTitle(file string) string {
	if file == stdinName {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}
