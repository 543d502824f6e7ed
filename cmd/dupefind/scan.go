package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mosaicfoundry/dupefind/internal/pipeline"
	"github.com/mosaicfoundry/dupefind/internal/progress"
	"github.com/mosaicfoundry/dupefind/internal/report"
	"github.com/mosaicfoundry/dupefind/internal/warnings"
)

// scanOptions holds CLI flags for the scan command.
type scanOptions struct {
	workers         int
	partialSizeStr  string
	chunkSizeStr    string
	batchSize       int
	memoryEfficient bool
	metadataOnly    bool
	cacheFile       string
	format          string
	noProgress      bool
	jsonIndent      bool
}

// newScanCmd creates the scan subcommand.
func newScanCmd() *cobra.Command {
	opts := &scanOptions{
		workers:        0, // 0 triggers the Pipeline's adaptive default
		partialSizeStr: "4096",
		chunkSizeStr:   "65536",
		format:         "text",
	}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Report duplicate files and folders by content",
		Long: `Scans one or more directory trees and reports files and folders with
identical content. Unlike the hardlink/symlink tools this borrows its
structure from, scan never modifies the filesystem: it only produces a
report, in text or JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runScan(args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "Number of parallel digest workers (0 = adaptive, based on CPU count and disk type)")
	cmd.Flags().StringVar(&opts.partialSizeStr, "partial-size", opts.partialSizeStr, "Prefix length read for the Stage 2 partial digest (e.g., 4096, 4K)")
	cmd.Flags().StringVar(&opts.chunkSizeStr, "chunk-size", opts.chunkSizeStr, "Read chunk size for the Stage 3 full digest (e.g., 65536, 64K)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Entries held in memory per size bucket before spilling to disk (requires --memory-efficient)")
	cmd.Flags().BoolVar(&opts.memoryEfficient, "memory-efficient", false, "Spill oversized Stage 1 buckets to a temporary on-disk store")
	cmd.Flags().BoolVar(&opts.metadataOnly, "metadata-only", false, "Group by (basename, size) only, skipping content hashing entirely")
	cmd.Flags().StringVar(&opts.cacheFile, "cache-file", "", "Path to digest cache file (enables caching across runs)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "Output format: text or json")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().BoolVar(&opts.jsonIndent, "json-indent", false, "Pretty-print JSON output")

	return cmd
}

// runScan runs the Pipeline over paths and writes the resulting Report to
// stdout in the requested format.
func runScan(paths []string, opts *scanOptions) error {
	partialSize, err := parseSize(opts.partialSizeStr)
	if err != nil {
		return fmt.Errorf("invalid --partial-size: %w", err)
	}
	chunkSize, err := parseSize(opts.chunkSizeStr)
	if err != nil {
		return fmt.Errorf("invalid --chunk-size: %w", err)
	}

	var formatter report.Formatter
	switch opts.format {
	case "text", "":
		formatter = report.TextFormatter{}
	case "json":
		formatter = report.JSONFormatter{Indent: opts.jsonIndent}
	default:
		return fmt.Errorf("invalid --format %q: must be text or json", opts.format)
	}

	var sink progress.Sink = progress.NoopSink{}
	if !opts.noProgress && opts.format == "text" {
		sink = progress.NewTerminalSink()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := pipeline.Config{
		Workers:          opts.workers,
		PartialSizeBytes: partialSize,
		ChunkSizeBytes:   int(chunkSize),
		BatchSize:        opts.batchSize,
		MemoryEfficient:  opts.memoryEfficient,
		MetadataOnly:     opts.metadataOnly,
		CachePath:        opts.cacheFile,
	}

	warn := warnings.New()
	rep, err := pipeline.Run(ctx, paths, cfg, sink, warn)
	if err != nil {
		return err
	}

	return formatter.Format(os.Stdout, rep)
}
