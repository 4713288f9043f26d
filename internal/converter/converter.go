// =============================================================================
// CSV to XML Converter - Converter Module
// =============================================================================
//
// This module runs the conversion pipeline for a single file, from opening
// the record source to archiving the processed files.
//
// CONVERSION PIPELINE:
//   1. Build the naming and the statement from the profile
//   2. Open the input file as a lazy record source (CSV or XLSX)
//   3. Filter, sort and page the records with the statement
//   4. Build the document tree
//   5. Write the XML output file
//   6. Archive the processed files
//
// CONCURRENCY:
//   Each file is processed by its own Converter. A Converter shares nothing
//   mutable with others, so the process command runs many of them at once.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/dom"
	"github.com/ginjaninja78/csvxml/internal/xmlconv"
	"github.com/ginjaninja78/csvxml/internal/xmlwriter"
	"github.com/ginjaninja78/csvxml/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Profile is the code of the profile used.
	Profile string

	// OutputFile is the path to the generated XML file.
	// This is empty if processing failed.
	OutputFile string

	// ArchivedInput is where the input file was moved, if archived.
	ArchivedInput string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RecordsRead is the number of data rows read from the source.
	RecordsRead int

	// RecordsWritten is the number of record elements in the output.
	RecordsWritten int

	// Columns is the source header.
	Columns []string

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single input file to XML.
type Converter struct {
	inputPath  string
	profile    *config.Profile
	mainConfig *config.MainConfig
	logger     *slog.Logger

	// fragment writes the record elements without the document element.
	fragment bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithFragment makes Convert write only the record elements.
func WithFragment(fragment bool) Option {
	return func(c *Converter) {
		c.fragment = fragment
	}
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the input file.
//   - profile: The conversion profile. Nil uses config.DefaultProfile.
//   - mainConfig: The main configuration. Only Run needs it.
//   - logger: The logger. Nil uses slog.Default.
func New(inputPath string, profile *config.Profile, mainConfig *config.MainConfig, logger *slog.Logger, opts ...Option) *Converter {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Converter{
		inputPath:  inputPath,
		profile:    profile,
		mainConfig: mainConfig,
		logger:     logger.With("file", filepath.Base(inputPath), "profile", profile.Code),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run converts the file into the output directory and archives it.
//
// RETURNS:
//   - A Result describing the outcome. Run never panics on bad input; every
//     failure is reported through Result.Error.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{
		FilePath: c.inputPath,
		Profile:  c.profile.Code,
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	if c.mainConfig == nil {
		result.Error = fmt.Errorf("no main configuration")
		return result
	}

	c.logger.Info("processing file")

	files := c.fileManager()

	// =========================================================================
	// STEPS 1-5: CONVERT INTO A TEMPORARY FILE
	// =========================================================================
	// The output appears under its final name only once it is complete.

	tmp, err := os.CreateTemp(c.mainConfig.OutputDir, ".csvxml-*.tmp")
	if err != nil {
		result.Error = fmt.Errorf("failed to create output file: %w", err)
		return result
	}
	defer os.Remove(tmp.Name())

	stats, err := c.Convert(ctx, tmp)
	result.Stats = stats
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write output: %w", closeErr)
	}
	if err != nil {
		result.Error = err
		return result
	}

	outputPath := filepath.Join(c.mainConfig.OutputDir, c.outputFileName())
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	result.OutputFile = outputPath
	c.logger.Info("wrote output",
		"output", outputPath,
		"records_read", stats.RecordsRead,
		"records_written", stats.RecordsWritten)

	// =========================================================================
	// STEP 6: ARCHIVE FILES
	// =========================================================================
	// Archival problems are logged but do not fail the conversion.

	if archived, err := files.ArchiveInputFile(c.inputPath); err != nil {
		c.logger.Warn("failed to archive input file", "error", err)
	} else if archived != c.inputPath {
		result.ArchivedInput = archived
	}
	if _, err := files.ArchiveOutputFile(outputPath); err != nil {
		c.logger.Warn("failed to archive output file", "error", err)
	}

	result.Success = true
	return result
}

// Convert reads the input file and writes the XML to w.
//
// RETURNS:
//   - The processing statistics, filled as far as processing got.
//   - An error if the profile is invalid, the input cannot be read, a name
//     is not a legal XML name or writing fails. Nothing is written to w
//     unless the whole document was built.
func (c *Converter) Convert(ctx context.Context, w io.Writer) (ProcessingStats, error) {
	var stats ProcessingStats

	// STEP 1: naming and statement.
	naming, err := c.profile.NamingConfig()
	if err != nil {
		return stats, fmt.Errorf("invalid naming: %w", err)
	}
	stmt, err := c.profile.BuildStatement()
	if err != nil {
		return stats, fmt.Errorf("invalid statement: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	// STEP 2: record source.
	src, err := OpenSource(c.inputPath, c.profile)
	if err != nil {
		return stats, fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	stats.Columns = src.Headers()
	c.logger.Debug("opened input", "columns", len(stats.Columns))

	// STEPS 3-4: statement and tree.
	records := stmt.Process(withContext(ctx, src.Records()))
	conv := xmlconv.New(naming, xmlconv.WithLogger(c.logger))

	var (
		doc  *dom.Document
		tree *dom.Node
	)
	if c.fragment {
		doc = dom.NewDocument()
		tree, err = conv.ImportSequence(records, doc)
	} else {
		doc, err = conv.ConvertSequence(records)
		if err == nil {
			tree = doc.DocumentElement()
		}
	}
	stats.RecordsRead = src.RowsRead()
	if err != nil {
		return stats, fmt.Errorf("failed to convert records: %w", err)
	}
	if err := src.Err(); err != nil {
		return stats, fmt.Errorf("failed to read input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	stats.RecordsWritten = len(tree.ChildNodes())

	// STEP 5: serialize.
	opts := c.profile.WriterOptions()
	if c.fragment {
		err = xmlwriter.WriteNode(w, tree, opts)
	} else {
		err = xmlwriter.Write(w, doc, opts)
	}
	if err != nil {
		return stats, fmt.Errorf("failed to write XML: %w", err)
	}

	return stats, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (c *Converter) fileManager() *utils.FileManager {
	fm := utils.NewFileManager(
		c.mainConfig.InputDir,
		c.mainConfig.OutputDir,
		c.mainConfig.InputArchiveDir,
		c.mainConfig.OutputArchiveDir,
	)
	fm.ArchiveOnSuccess = c.mainConfig.Archive
	fm.UseTimestampSubdirs = c.mainConfig.ArchiveDateSubdirs
	return fm
}

// outputFileName names the output after the configured format.
func (c *Converter) outputFileName() string {
	base := filepath.Base(c.inputPath)
	return utils.GenerateOutputFileName(c.mainConfig.OutputNameFormat, map[string]string{
		"name":    strings.TrimSuffix(base, filepath.Ext(base)),
		"profile": c.profile.Code,
	})
}
