package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/csvxml/internal/statement"
	"github.com/ginjaninja78/csvxml/internal/xmlconv"
	"github.com/ginjaninja78/csvxml/internal/xmlwriter"
)

// =============================================================================
// PROFILE STRUCTURE
// =============================================================================

// Profile describes how one kind of input file is converted.
type Profile struct {
	// =========================================================================
	// PROFILE IDENTIFICATION
	// =========================================================================

	// Name is the human-readable name used in logs and reports.
	Name string `yaml:"name"`

	// Code is a short identifier, used as the profile key and in output
	// file names. Defaults to the profile file name without extension.
	Code string `yaml:"code"`

	// =========================================================================
	// FILE MATCHING RULES
	// =========================================================================

	// FileMatchingPatterns is a list of glob patterns matched against input
	// file names. Examples: "payments_*.csv", "*_export.xlsx".
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// InputFormat is "csv" or "xlsx". When empty it is derived from the
	// file extension.
	InputFormat string `yaml:"input_format"`

	// =========================================================================
	// SOURCE SETTINGS
	// =========================================================================

	CSVSettings  CSVSettings  `yaml:"csv_settings"`
	XLSXSettings XLSXSettings `yaml:"xlsx_settings"`

	// =========================================================================
	// CONVERSION SETTINGS
	// =========================================================================

	Naming    NamingSettings    `yaml:"naming"`
	Statement StatementSettings `yaml:"statement"`
	Output    OutputSettings    `yaml:"output"`

	// SourceFile is the file the profile was loaded from.
	SourceFile string `yaml:"-"`
}

// CSVSettings contains settings for reading CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Aliases: "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderOffset is the 0-based row holding the column names. Rows above
	// it are ignored. -1 means the file has no header and columns are named
	// by their 0-based index.
	// Default: 0
	HeaderOffset int `yaml:"header_offset"`

	// Encoding is the IANA name of the file's character set, such as
	// "UTF-8", "ISO-8859-1" or "Windows-1252". It is never guessed.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// TrimValues strips leading and trailing whitespace from every cell and
	// header.
	TrimValues bool `yaml:"trim_values"`

	// KeepEmptyRows yields rows whose cells are all blank. They are skipped
	// by default; skipped rows still consume an offset.
	KeepEmptyRows bool `yaml:"keep_empty_rows"`

	// KeepBlankHeaders keeps blank header cells as they are instead of
	// naming them Column_N. With column_elements the conversion then fails
	// on the blank name.
	KeepBlankHeaders bool `yaml:"keep_blank_headers"`
}

// XLSXSettings contains settings for reading spreadsheet files.
type XLSXSettings struct {
	// Sheet is the worksheet name. Default: the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 0-based row holding the column names.
	// Default: 0
	HeaderRow int `yaml:"header_row"`

	// KeepEmptyRows behaves like CSVSettings.KeepEmptyRows.
	KeepEmptyRows bool `yaml:"keep_empty_rows"`

	// KeepBlankHeaders behaves like CSVSettings.KeepBlankHeaders.
	KeepBlankHeaders bool `yaml:"keep_blank_headers"`
}

// NamingSettings mirrors xmlconv.NamingConfig.
type NamingSettings struct {
	Root            string `yaml:"root"`
	Record          string `yaml:"record"`
	RecordAttribute string `yaml:"record_attribute"`
	Field           string `yaml:"field"`
	FieldAttribute  string `yaml:"field_attribute"`

	// ColumnElements names each field element after its column.
	ColumnElements bool `yaml:"column_elements"`
}

// StatementSettings mirrors statement.Statement.
type StatementSettings struct {
	// Filters are ANDed in order.
	Filters []FilterRule `yaml:"filters"`

	// Sort keys, the first one decides.
	Sort []SortRule `yaml:"sort"`

	// Offset skips the first selected records.
	Offset int `yaml:"offset"`

	// Limit caps the number of records. Absent or -1 means no cap.
	Limit *int `yaml:"limit"`
}

// FilterRule keeps records whose column satisfies Op against Value.
//
// Supported operators:
//   - "eq" (default), "ne"
//   - "contains", "prefix", "suffix"
//   - "regex"     : Value is a Go regular expression
//   - "not_empty" : Value is ignored
type FilterRule struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Value  string `yaml:"value"`
}

// SortRule orders records by a column.
type SortRule struct {
	Column string `yaml:"column"`

	// Order is "asc" (default) or "desc".
	Order string `yaml:"order"`

	// Numeric compares values as numbers.
	Numeric bool `yaml:"numeric"`
}

// OutputSettings controls XML text output.
type OutputSettings struct {
	// Indent is repeated once per nesting level. Default: two spaces.
	Indent *string `yaml:"indent"`

	// Declaration writes the <?xml ...?> header. Default: true.
	Declaration *bool `yaml:"declaration"`

	// Encoding is the IANA charset of the output file, also written in the
	// declaration. Default: "UTF-8".
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// PROFILE LOADING FUNCTIONS
// =============================================================================

// LoadProfiles loads every profile in a directory.
//
// PARAMETERS:
//   - profilesDir: The directory containing *.yaml / *.yml profile files.
//
// RETURNS:
//   - A map of profiles keyed by profile code.
//   - An error if a file cannot be parsed, a profile is invalid or two
//     profiles share a code.
func LoadProfiles(profilesDir string) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)

	files, err := ProfileFiles(profilesDir)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		profile, err := LoadProfile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if existing, ok := profiles[profile.Code]; ok {
			return nil, fmt.Errorf("profile code %q defined in both %s and %s", profile.Code, existing.SourceFile, path)
		}
		profiles[profile.Code] = profile
	}

	return profiles, nil
}

// ProfileFiles lists the *.yaml and *.yml files of a directory, sorted.
func ProfileFiles(profilesDir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(profilesDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list profile files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// LoadProfile loads and validates a single profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	profile, err := ParseProfile(data)
	if err != nil {
		return nil, err
	}

	profile.SourceFile = path
	if profile.Code == "" {
		profile.Code = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if profile.Name == "" {
		profile.Name = profile.Code
	}

	return profile, nil
}

// ParseProfile decodes and validates a profile from YAML.
func ParseProfile(data []byte) (*Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	applyProfileDefaults(&profile)

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return &profile, nil
}

// DefaultProfile returns a profile with every default applied, used when a
// file is converted without a profile.
func DefaultProfile() *Profile {
	p := &Profile{Code: "default", Name: "default"}
	applyProfileDefaults(p)
	return p
}

// applyProfileDefaults sets default values for profile settings.
func applyProfileDefaults(p *Profile) {
	if p.CSVSettings.Delimiter == "" {
		p.CSVSettings.Delimiter = ","
	}
	if p.CSVSettings.Encoding == "" {
		p.CSVSettings.Encoding = "UTF-8"
	}

	if p.Naming.Root == "" {
		p.Naming.Root = xmlconv.DefaultRootName
	}
	if p.Naming.Record == "" {
		p.Naming.Record = xmlconv.DefaultRecordName
	}
	if p.Naming.Field == "" {
		p.Naming.Field = xmlconv.DefaultFieldName
	}

	for i := range p.Statement.Filters {
		if p.Statement.Filters[i].Op == "" {
			p.Statement.Filters[i].Op = "eq"
		}
	}
	for i := range p.Statement.Sort {
		if p.Statement.Sort[i].Order == "" {
			p.Statement.Sort[i].Order = "asc"
		}
	}

	if p.Output.Indent == nil {
		indent := "  "
		p.Output.Indent = &indent
	}
	if p.Output.Declaration == nil {
		declaration := true
		p.Output.Declaration = &declaration
	}
	if p.Output.Encoding == "" {
		p.Output.Encoding = "UTF-8"
	}
}

// =============================================================================
// PROFILE METHODS
// =============================================================================

// Validate checks every setting that can be checked without an input file:
// input format, naming rules and the statement.
func (p *Profile) Validate() error {
	var errs []error

	switch strings.ToLower(p.InputFormat) {
	case "", "csv", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("input_format must be \"csv\" or \"xlsx\", got %q", p.InputFormat))
	}

	if p.CSVSettings.HeaderOffset < -1 {
		errs = append(errs, fmt.Errorf("csv_settings.header_offset must be -1 or greater, got %d", p.CSVSettings.HeaderOffset))
	}
	if p.XLSXSettings.HeaderRow < 0 {
		errs = append(errs, fmt.Errorf("xlsx_settings.header_row must be 0 or greater, got %d", p.XLSXSettings.HeaderRow))
	}

	for _, pattern := range p.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("file matching pattern %q: %w", pattern, err))
		}
	}

	if _, err := p.NamingConfig(); err != nil {
		errs = append(errs, fmt.Errorf("naming: %w", err))
	}
	if _, err := p.BuildStatement(); err != nil {
		errs = append(errs, fmt.Errorf("statement: %w", err))
	}
	if err := p.WriterOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}

	return errors.Join(errs...)
}

// WriterOptions returns the XML output options of the profile.
func (p *Profile) WriterOptions() xmlwriter.Options {
	opts := xmlwriter.DefaultOptions()
	if p.Output.Indent != nil {
		opts.Indent = *p.Output.Indent
	}
	if p.Output.Declaration != nil {
		opts.IncludeXMLDeclaration = *p.Output.Declaration
	}
	if p.Output.Encoding != "" {
		opts.Encoding = p.Output.Encoding
	}
	return opts
}

// NamingConfig builds the converter naming from the profile.
func (p *Profile) NamingConfig() (xmlconv.NamingConfig, error) {
	n := p.Naming
	naming, err := xmlconv.DefaultNaming().RootElement(n.Root)
	if err != nil {
		return naming, err
	}
	naming, err = naming.RecordElement(n.Record, n.RecordAttribute)
	if err != nil {
		return naming, err
	}
	naming, err = naming.FieldElement(n.Field, n.FieldAttribute)
	if err != nil {
		return naming, err
	}
	return naming.ColumnElements(n.ColumnElements), nil
}

// BuildStatement builds the record statement from the profile.
func (p *Profile) BuildStatement() (statement.Statement, error) {
	s := p.Statement
	stmt := statement.New()

	for i, rule := range s.Filters {
		pred, err := rule.predicate()
		if err != nil {
			return stmt, fmt.Errorf("filter %d: %w", i+1, err)
		}
		stmt = stmt.Where(pred)
	}

	for i, rule := range s.Sort {
		if rule.Column == "" {
			return stmt, fmt.Errorf("sort %d: column is required", i+1)
		}
		var desc bool
		switch strings.ToLower(rule.Order) {
		case "", "asc":
		case "desc":
			desc = true
		default:
			return stmt, fmt.Errorf("sort %d: order must be \"asc\" or \"desc\", got %q", i+1, rule.Order)
		}
		if rule.Numeric {
			stmt = stmt.OrderBy(statement.ByColumnNumeric(rule.Column, desc))
		} else {
			stmt = stmt.OrderBy(statement.ByColumn(rule.Column, desc))
		}
	}

	stmt, err := stmt.Offset(s.Offset)
	if err != nil {
		return stmt, err
	}
	if s.Limit != nil {
		stmt, err = stmt.Limit(*s.Limit)
		if err != nil {
			return stmt, err
		}
	}

	return stmt, nil
}

// Matches reports whether fileName matches one of the profile's patterns.
func (p *Profile) Matches(fileName string) bool {
	base := filepath.Base(fileName)
	for _, pattern := range p.FileMatchingPatterns {
		matched, err := filepath.Match(pattern, base)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Format returns the input format for path: the configured one, or one
// derived from the extension.
func (p *Profile) Format(path string) string {
	if p.InputFormat != "" {
		return strings.ToLower(p.InputFormat)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}

// predicate builds the statement predicate for a filter rule.
func (r FilterRule) predicate() (statement.Predicate, error) {
	if r.Column == "" {
		return nil, fmt.Errorf("column is required")
	}
	switch strings.ToLower(r.Op) {
	case "", "eq":
		return statement.ColumnEquals(r.Column, r.Value), nil
	case "ne":
		return statement.ColumnNotEquals(r.Column, r.Value), nil
	case "contains":
		return statement.ColumnContains(r.Column, r.Value), nil
	case "prefix":
		return statement.ColumnHasPrefix(r.Column, r.Value), nil
	case "suffix":
		return statement.ColumnHasSuffix(r.Column, r.Value), nil
	case "regex":
		return statement.ColumnMatches(r.Column, r.Value)
	case "not_empty":
		return statement.ColumnNotEmpty(r.Column), nil
	default:
		return nil, fmt.Errorf("unknown filter op %q", r.Op)
	}
}
