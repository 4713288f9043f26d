// =============================================================================
// CSV to XML Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point of the csvxml CLI. It delegates everything to
// the cmd package.
//
// USAGE:
//   csvxml process          - Convert every matching file in the input directory
//   csvxml convert FILE     - Convert one file to stdout or a file
//   csvxml validate         - Check the configuration and the profiles
//   csvxml version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Record model, statement, XML tree, sources, writer
//   - pkg/           : File management shared by the commands
//   - profiles/      : Conversion profiles (YAML)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csvxml/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
