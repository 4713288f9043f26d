package converter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/testutil"
	"github.com/ginjaninja78/csvxml/internal/xmlname"
)

const prenomsCSV = `prenoms,nombre,sexe,annee
Aaron,10,M,2004
Abdoulaye,11,M,2004
Abel,12,M,2004
Adèle,13,F,2004
`

func testMainConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:         filepath.Join(root, "input"),
		OutputDir:        filepath.Join(root, "output"),
		InputArchiveDir:  filepath.Join(root, "input_archive"),
		OutputArchiveDir: filepath.Join(root, "output_archive"),
		OutputNameFormat: "{profile}_{name}.xml",
		MaxConcurrency:   1,
		Archive:          true,
	}
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return cfg
}

func mustProfile(t *testing.T, yaml string) *config.Profile {
	t.Helper()
	p, err := config.ParseProfile([]byte(yaml))
	require.NoError(t, err)
	p.Code = "TEST"
	return p
}

func writeInput(t *testing.T, cfg *config.MainConfig, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	cfg := testMainConfig(t)
	input := writeInput(t, cfg, "prenoms.csv", prenomsCSV)
	profile := mustProfile(t, `
naming:
  root: prenoms
  record: row
  record_attribute: offset
  field: field
  field_attribute: name
statement:
  filters:
    - column: sexe
      value: M
  offset: 1
output:
  indent: ""
  declaration: false
`)

	result := New(input, profile, cfg, testutil.NewTestLogger(t)).Run(context.Background())
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "TEST_prenoms.xml"), result.OutputFile)
	assert.Equal(t, 4, result.Stats.RecordsRead)
	assert.Equal(t, 2, result.Stats.RecordsWritten)
	assert.Equal(t, []string{"prenoms", "nombre", "sexe", "annee"}, result.Stats.Columns)
	assert.Positive(t, result.Stats.ProcessingTime)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	want := `<prenoms>` +
		`<row offset="1"><field name="prenoms">Abdoulaye</field><field name="nombre">11</field><field name="sexe">M</field><field name="annee">2004</field></row>` +
		`<row offset="2"><field name="prenoms">Abel</field><field name="nombre">12</field><field name="sexe">M</field><field name="annee">2004</field></row>` +
		`</prenoms>`
	assert.Equal(t, want, string(data))

	assert.NoFileExists(t, input)
	assert.Equal(t, filepath.Join(cfg.InputArchiveDir, "prenoms.csv"), result.ArchivedInput)
	assert.FileExists(t, result.ArchivedInput)
	assert.FileExists(t, filepath.Join(cfg.OutputArchiveDir, "TEST_prenoms.xml"))
}

func TestRun_NoArchive(t *testing.T) {
	cfg := testMainConfig(t)
	cfg.Archive = false
	input := writeInput(t, cfg, "prenoms.csv", prenomsCSV)

	result := New(input, nil, cfg, testutil.NewTestLogger(t)).Run(context.Background())
	require.True(t, result.Success, "error: %v", result.Error)
	assert.FileExists(t, input)
	assert.Empty(t, result.ArchivedInput)
	assert.NoDirExists(t, cfg.OutputArchiveDir)
}

func TestRun_Failure(t *testing.T) {
	cfg := testMainConfig(t)
	input := writeInput(t, cfg, "bad.csv", "ok,2nd\nx,y\n")
	profile := mustProfile(t, "naming:\n  column_elements: true\n")

	result := New(input, profile, cfg, testutil.NewTestLogger(t)).Run(context.Background())
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, xmlname.ErrInvalidName)
	assert.Empty(t, result.OutputFile)
	assert.FileExists(t, input, "failed inputs stay in place")

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial output is left behind")
}

func TestRun_MissingInput(t *testing.T) {
	cfg := testMainConfig(t)
	result := New(filepath.Join(cfg.InputDir, "missing.csv"), nil, cfg, testutil.NewTestLogger(t)).Run(context.Background())
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestRun_NoMainConfig(t *testing.T) {
	result := New("in.csv", nil, nil, testutil.NewTestLogger(t)).Run(context.Background())
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestRun_XLSX(t *testing.T) {
	cfg := testMainConfig(t)
	path := filepath.Join(cfg.InputDir, "people.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"name", "age"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Ada", 36}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Alan", 41}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	profile := mustProfile(t, `
naming:
  root: people
  record: person
  column_elements: true
statement:
  sort:
    - column: age
      order: desc
      numeric: true
output:
  indent: ""
  declaration: false
`)

	result := New(path, profile, cfg, testutil.NewTestLogger(t)).Run(context.Background())
	require.True(t, result.Success, "error: %v", result.Error)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Equal(t,
		`<people><person><name>Alan</name><age>41</age></person><person><name>Ada</name><age>36</age></person></people>`,
		string(data))
}

func TestConvert_Fragment(t *testing.T) {
	cfg := testMainConfig(t)
	input := writeInput(t, cfg, "prenoms.csv", prenomsCSV)
	profile := mustProfile(t, `
statement:
  limit: 1
output:
  indent: ""
`)

	var buf bytes.Buffer
	stats, err := New(input, profile, nil, testutil.NewTestLogger(t), WithFragment(true)).
		Convert(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.RecordsWritten)
	assert.Equal(t,
		`<row><field>Aaron</field><field>10</field><field>M</field><field>2004</field></row>`,
		buf.String(), "a fragment has no declaration and no root")
}

func TestConvert_Cancelled(t *testing.T) {
	cfg := testMainConfig(t)
	input := writeInput(t, cfg, "prenoms.csv", prenomsCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := New(input, nil, nil, testutil.NewTestLogger(t)).Convert(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestOpenSource_UnsupportedFormat(t *testing.T) {
	profile := config.DefaultProfile()
	profile.InputFormat = "json"
	_, err := OpenSource("x.json", profile)
	assert.Error(t, err)
}

func TestConvert_OutputEncoding(t *testing.T) {
	cfg := testMainConfig(t)
	input := writeInput(t, cfg, "names.csv", "name\nRené\n")
	profile := mustProfile(t, `
output:
  indent: ""
  encoding: ISO-8859-1
`)

	var buf bytes.Buffer
	_, err := New(input, profile, nil, testutil.NewTestLogger(t)).Convert(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t,
		"<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><csv><row><field>Ren\xe9</field></row></csv>",
		buf.String())
}

func TestConvert_BlankHeaderWithColumnElements(t *testing.T) {
	cfg := testMainConfig(t)
	input := writeInput(t, cfg, "blank.csv", "a,,c\n1,2,3\n")

	renamed := mustProfile(t, "naming:\n  column_elements: true\n")
	var buf bytes.Buffer
	_, err := New(input, renamed, nil, testutil.NewTestLogger(t)).Convert(context.Background(), &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<Column_2>2</Column_2>")

	kept := mustProfile(t, "csv_settings:\n  keep_blank_headers: true\nnaming:\n  column_elements: true\n")
	buf.Reset()
	_, err = New(input, kept, nil, testutil.NewTestLogger(t)).Convert(context.Background(), &buf)
	assert.ErrorIs(t, err, xmlname.ErrInvalidName)
	assert.Zero(t, buf.Len())
}
