// =============================================================================
// CSV to XML Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every input file
// that matches a profile.
//
// COMMAND USAGE:
//   csvxml process [flags]
//
// FLAGS:
//   --dry-run  : Convert without writing or archiving anything
//   --file     : Process only this file
//   --profile  : Process only files matched by this profile code
//
// PROCESSING PIPELINE:
//   1. Load the profiles
//   2. Discover input files matching any profile pattern
//   3. Convert files concurrently, max_concurrency at a time
//   4. Print a summary table
//   5. Write the summary and error logs to the output directory
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/converter"
	"github.com/ginjaninja78/csvxml/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun         bool
	processFile    string
	processProfile string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert every matching file in the input directory",
	Long: `The process command scans the input directory, matches every file to a
profile by its file_matching_patterns and converts it to XML.

Files are converted concurrently. A failure in one file does not stop the
others unless continue_on_error is false.

On success:
  - The generated XML is placed in the output directory
  - The input file is moved to the input archive
  - The XML is copied to the output archive

On error:
  - The error is written to an error log in the output directory
  - The input file remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert without writing output files or archiving")
	processCmd.Flags().StringVar(&processFile, "file", "", "Process only this file")
	processCmd.Flags().StringVar(&processProfile, "profile", "", "Process only files matched by this profile code")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()
	ctx := cmd.Context()

	// =========================================================================
	// STEP 1: LOAD PROFILES
	// =========================================================================

	profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if processProfile != "" {
		p, ok := profiles[processProfile]
		if !ok {
			return fmt.Errorf("unknown profile %q", processProfile)
		}
		profiles = map[string]*config.Profile{p.Code: p}
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles found in %s", mainConfig.ProfilesDir)
	}
	logger.Info("loaded profiles", "count", len(profiles))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	files.ArchiveOnSuccess = mainConfig.Archive
	files.UseTimestampSubdirs = mainConfig.ArchiveDateSubdirs

	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	var inputFiles []string
	if processFile != "" {
		inputFiles = []string{processFile}
	} else {
		inputFiles, err = files.DiscoverInputFiles(profilePatterns(profiles)...)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No input files found.")
		return nil
	}
	logger.Info("discovered input files", "count", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Every job writes its own slot of results, so no locking is needed.

	results := make([]converter.Result, len(inputFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range inputFiles {
		g.Go(func() error {
			profile := findMatchingProfile(file, profiles)
			if profile == nil {
				results[i] = converter.Result{
					FilePath: file,
					Error:    fmt.Errorf("no matching profile found"),
				}
			} else {
				results[i] = runJob(gctx, file, profile)
			}

			if r := results[i]; !r.Success && !mainConfig.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(file), r.Error)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	summary := summarize(results, startTime)
	printSummary(cmd.OutOrStdout(), results, summary)

	// =========================================================================
	// STEP 5: LOGS
	// =========================================================================

	if !dryRun {
		writeLogs(summary, results)
	}

	return waitErr
}

// runJob converts one file, or only checks that it converts on a dry run.
func runJob(ctx context.Context, file string, profile *config.Profile) converter.Result {
	conv := converter.New(file, profile, mainConfig, logger)
	if !dryRun {
		return conv.Run(ctx)
	}

	start := time.Now()
	stats, err := conv.Convert(ctx, io.Discard)
	stats.ProcessingTime = time.Since(start)
	return converter.Result{
		FilePath: file,
		Profile:  profile.Code,
		Success:  err == nil,
		Error:    err,
		Stats:    stats,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// profilePatterns collects the file patterns of every profile.
func profilePatterns(profiles map[string]*config.Profile) []string {
	var patterns []string
	for _, code := range sortedCodes(profiles) {
		patterns = append(patterns, profiles[code].FileMatchingPatterns...)
	}
	return patterns
}

// findMatchingProfile returns the first profile, in code order, whose
// patterns match the file name.
func findMatchingProfile(filePath string, profiles map[string]*config.Profile) *config.Profile {
	for _, code := range sortedCodes(profiles) {
		if profiles[code].Matches(filePath) {
			return profiles[code]
		}
	}
	return nil
}

func sortedCodes(profiles map[string]*config.Profile) []string {
	codes := make([]string, 0, len(profiles))
	for code := range profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func summarize(results []converter.Result, startTime time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		EndTime:    time.Now(),
		TotalFiles: len(results),
	}

	for _, r := range results {
		summary.TotalRecordsRead += r.Stats.RecordsRead
		summary.TotalRecordsWritten += r.Stats.RecordsWritten

		if r.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:      r.FilePath,
				OutputFile:     r.OutputFile,
				Profile:        r.Profile,
				RecordsRead:    r.Stats.RecordsRead,
				RecordsWritten: r.Stats.RecordsWritten,
				ProcessTime:    r.Stats.ProcessingTime,
			})
			continue
		}

		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    r.FilePath,
			Profile:      r.Profile,
			ErrorMessage: errorText(r.Error),
		})
	}

	return summary
}

func printSummary(w io.Writer, results []converter.Result, summary utils.ProcessingSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(tableStyle(w))

	t.AppendHeader(table.Row{"File", "Profile", "Status", "Read", "Written", "Output / Error"})
	for _, r := range results {
		status, detail := "ok", r.OutputFile
		if dryRun && r.Success {
			status, detail = "dry-run", ""
		}
		if !r.Success {
			status, detail = "failed", errorText(r.Error)
		}
		t.AppendRow(table.Row{
			filepath.Base(r.FilePath),
			r.Profile,
			status,
			r.Stats.RecordsRead,
			r.Stats.RecordsWritten,
			detail,
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d files", summary.TotalFiles),
		"",
		fmt.Sprintf("%d failed", summary.FailedFiles),
		summary.TotalRecordsRead,
		summary.TotalRecordsWritten,
		summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String(),
	})
	t.Render()
}

func writeLogs(summary utils.ProcessingSummary, results []converter.Result) {
	if path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
		logger.Warn("failed to write summary log", "error", err)
	} else {
		logger.Debug("wrote summary log", "path", path)
	}

	var entries []utils.ErrorLogEntry
	for _, r := range results {
		if r.Success {
			continue
		}
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     r.FilePath,
			Profile:      r.Profile,
			Stage:        "convert",
			ErrorMessage: errorText(r.Error),
		})
	}

	if path, err := utils.WriteErrorLog(entries, mainConfig.OutputDir); err != nil {
		logger.Warn("failed to write error log", "error", err)
	} else if path != "" {
		logger.Warn("some files failed", "count", len(entries), "error_log", path)
	}
}

// tableStyle uses box drawing on terminals and plain ASCII elsewhere.
func tableStyle(w io.Writer) table.Style {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return table.StyleLight
	}
	return table.StyleDefault
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
