// =============================================================================
// CSV to XML Converter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the main
// configuration and every profile without converting anything.
//
// COMMAND USAGE:
//   csvxml validate
//
// Every profile file is loaded on its own so that one broken file does not
// hide the others. The command fails if any profile is invalid or if two
// profiles share a code.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csvxml/internal/config"
)

// =============================================================================
// VALIDATE COMMAND DEFINITION
// =============================================================================

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and every profile",
	Long: `The validate command loads the main configuration and every profile in
the profiles directory, and reports the problems found in each of them.

A profile is invalid when its YAML cannot be parsed, an element or attribute
name is not a legal XML name, a file pattern is malformed or a filter or sort
rule is wrong.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// profileCheck is the outcome of loading one profile file.
type profileCheck struct {
	file    string
	profile *config.Profile
	err     error
}

// =============================================================================
// VALIDATE FUNCTION
// =============================================================================

func runValidate(cmd *cobra.Command) error {
	files, err := config.ProfileFiles(mainConfig.ProfilesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no profiles found in %s", mainConfig.ProfilesDir)
	}

	checks := checkProfiles(files)
	printChecks(cmd.OutOrStdout(), checks)

	invalid := 0
	for _, c := range checks {
		if c.err != nil {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d profiles are invalid", invalid, len(checks))
	}

	logger.Info("configuration is valid", "profiles", len(checks))
	return nil
}

// checkProfiles loads every file and flags profiles whose code was already
// taken by an earlier file.
func checkProfiles(files []string) []profileCheck {
	checks := make([]profileCheck, 0, len(files))
	seen := make(map[string]string)

	for _, path := range files {
		profile, err := config.LoadProfile(path)
		if err == nil {
			if first, ok := seen[profile.Code]; ok {
				err = fmt.Errorf("code %q already used by %s", profile.Code, filepath.Base(first))
			} else {
				seen[profile.Code] = path
			}
		}
		checks = append(checks, profileCheck{file: path, profile: profile, err: err})
	}

	return checks
}

func printChecks(w io.Writer, checks []profileCheck) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(tableStyle(w))

	t.AppendHeader(table.Row{"File", "Code", "Name", "Format", "Patterns", "Status"})
	for _, c := range checks {
		row := table.Row{filepath.Base(c.file), "", "", "", "", "ok"}
		if p := c.profile; p != nil {
			format := p.InputFormat
			if format == "" {
				format = "auto"
			}
			row[1], row[2], row[3] = p.Code, p.Name, format
			row[4] = strings.Join(p.FileMatchingPatterns, " ")
		}
		if c.err != nil {
			row[5] = errorText(c.err)
		}
		t.AppendRow(row)
	}
	t.Render()
}
