// Package main is the aisisparse command: it parses saved or pasted AISIS
// pages from files and prints the structured result.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyellow/aisis-planner-go/internal/buildinfo"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "aisisparse",
		Short: "Extract structured data from AISIS pages",
		Long: `aisisparse turns text copied from AISIS, or saved page source, into
structured records: official curricula, personal class schedules,
department class schedules and grade listings.

Each FILE is parsed independently; "-" reads standard input. Results are
printed in argument order.

Example:
  aisisparse curriculum bs-cs.txt
  aisisparse department --term 2024-1 --department MATH math.html --xlsx math.xlsx
  aisisparse grades --format yaml grades.txt`,
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.format, "format", "f", "json", "output format: json or yaml")
	flags.StringVar(&opts.xlsxPath, "xlsx", "", "also write the records to this XLSX workbook")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", defaultConcurrency(), "number of files parsed at once")
	flags.BoolVar(&opts.persist, "persist", false, "store each run in the local SQLite database")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level for stderr: debug, info, warn or error")

	rootCmd.AddCommand(curriculumCmd(opts))
	rootCmd.AddCommand(scheduleCmd(opts))
	rootCmd.AddCommand(departmentCmd(opts))
	rootCmd.AddCommand(gradesCmd(opts))

	return rootCmd
}
