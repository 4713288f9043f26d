// =============================================================================
// CSV to XML Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts a single file and
// writes the XML to stdout or to a file. Nothing is archived.
//
// COMMAND USAGE:
//   csvxml convert FILE [flags]
//
// The conversion settings come from --profile, or the defaults, and are then
// overridden by any naming, statement or source flag given.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/converter"
	"github.com/ginjaninja78/csvxml/internal/xmlwriter"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	convertProfile  string
	convertOutput   string
	convertXSD      string
	convertFragment bool
)

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Convert one CSV or XLSX file to XML",
	Long: `The convert command converts a single file and writes the XML to stdout,
or to the file given with --output.

Examples:
  csvxml convert prenoms.csv --record-attr offset --field-attr name
  csvxml convert prenoms.csv --offset 3 --limit 5 --output page.xml
  csvxml convert export.xlsx --column-elements --sheet Data
  csvxml convert payments.csv --profile PAY --xsd payments.xsd`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()

	flags.StringVar(&convertProfile, "profile", "", "Profile code to start from (default: built-in defaults)")
	flags.StringVarP(&convertOutput, "output", "o", "", "Write the XML to this file instead of stdout")
	flags.StringVar(&convertXSD, "xsd", "", "Also write an XML Schema of the output to this file")
	flags.BoolVar(&convertFragment, "fragment", false, "Write only the record elements, without declaration or root")

	// Naming
	flags.String("root", "", "Root element name")
	flags.String("record", "", "Record element name")
	flags.String("record-attr", "", "Record attribute holding the record offset")
	flags.String("field", "", "Field element name")
	flags.String("field-attr", "", "Field attribute holding the column name")
	flags.Bool("column-elements", false, "Name field elements after their column")

	// Statement
	flags.Int("offset", 0, "Number of selected records to skip")
	flags.Int("limit", -1, "Maximum number of records (-1: no limit)")

	// Source
	flags.String("delimiter", "", "CSV delimiter: a character, tab, pipe or semicolon")
	flags.Int("header-offset", 0, "0-based row of the CSV header (-1: no header)")
	flags.String("encoding", "", "Character set of the CSV file")
	flags.String("sheet", "", "XLSX sheet name")
}

// =============================================================================
// CONVERT FUNCTION
// =============================================================================

func runConvert(cmd *cobra.Command, inputPath string) error {
	profile, err := convertSettings(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	var out *os.File
	if convertOutput != "" {
		out, err = os.Create(convertOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		w = out
	}

	conv := converter.New(inputPath, profile, mainConfig, logger, converter.WithFragment(convertFragment))
	stats, err := conv.Convert(cmd.Context(), w)

	if out != nil {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(convertOutput)
		}
	}
	if err != nil {
		return err
	}

	logger.Info("converted file",
		"file", inputPath,
		"records_read", stats.RecordsRead,
		"records_written", stats.RecordsWritten)

	if convertXSD != "" {
		naming, err := profile.NamingConfig()
		if err != nil {
			return err
		}
		xsd, err := xmlwriter.GenerateXSD(naming, stats.Columns)
		if err != nil {
			return fmt.Errorf("failed to generate XSD: %w", err)
		}
		if err := os.WriteFile(convertXSD, xsd, 0644); err != nil {
			return fmt.Errorf("failed to write XSD: %w", err)
		}
	}

	return nil
}

// convertSettings builds the profile for a convert run: the named profile or
// the defaults, with every changed flag applied on top.
func convertSettings(cmd *cobra.Command) (*config.Profile, error) {
	profile := config.DefaultProfile()
	if convertProfile != "" {
		profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		p, ok := profiles[convertProfile]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", convertProfile)
		}
		copied := *p
		profile = &copied
	}

	flags := cmd.Flags()
	changed := flags.Changed

	if changed("root") {
		profile.Naming.Root, _ = flags.GetString("root")
	}
	if changed("record") {
		profile.Naming.Record, _ = flags.GetString("record")
	}
	if changed("record-attr") {
		profile.Naming.RecordAttribute, _ = flags.GetString("record-attr")
	}
	if changed("field") {
		profile.Naming.Field, _ = flags.GetString("field")
	}
	if changed("field-attr") {
		profile.Naming.FieldAttribute, _ = flags.GetString("field-attr")
	}
	if changed("column-elements") {
		profile.Naming.ColumnElements, _ = flags.GetBool("column-elements")
	}
	if changed("offset") {
		profile.Statement.Offset, _ = flags.GetInt("offset")
	}
	if changed("limit") {
		limit, _ := flags.GetInt("limit")
		profile.Statement.Limit = &limit
	}
	if changed("delimiter") {
		profile.CSVSettings.Delimiter, _ = flags.GetString("delimiter")
	}
	if changed("header-offset") {
		profile.CSVSettings.HeaderOffset, _ = flags.GetInt("header-offset")
	}
	if changed("encoding") {
		profile.CSVSettings.Encoding, _ = flags.GetString("encoding")
	}
	if changed("sheet") {
		profile.XLSXSettings.Sheet, _ = flags.GetString("sheet")
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return profile, nil
}
