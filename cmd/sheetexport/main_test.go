package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

const definitions = `
models:
  Employee:
    table: employees
    display: name
    fields: [name]
  User:
    table: users
    display: full_name
    fields: [full_name, active]
    to_one:
      manager: {model: Employee, column: manager_id}
sheets:
  Users:
    dataset:
      model: User
      data:
        full_name: {}
        manager:
          references:
            - {label: Name, path: name}
    filters:
      INCLUDE:
        and:
          - {name: active, values: [true]}
    formatting:
      freeze_header: true
      autofilter: true
      print_area: true
  Managers:
    dataset:
      model: Employee
      data:
        name: {}
export:
  sequence: [Managers, Users]
`

func setup(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	db, err := sql.Open("sqlite3", filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`
CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE users (id INTEGER PRIMARY KEY, full_name TEXT NOT NULL, active BOOLEAN NOT NULL, manager_id INTEGER);
INSERT INTO employees VALUES (1, 'Alice'), (2, 'Bob');
INSERT INTO users VALUES (1, 'Ann', 1, 1), (2, 'Ben', 1, 2), (3, 'Cal', 0, 1), (4, 'Dia', 1, 1);
`)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sheets.yaml"), []byte(definitions), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExport_XLSXAndInspect(t *testing.T) {
	dir := setup(t)
	xlsx := filepath.Join(dir, "out.xlsx")
	textfile := filepath.Join(dir, "sheetexport.prom")

	_, stderr, err := execute(t, "export",
		"-d", filepath.Join(dir, "sheets.yaml"),
		"--db", filepath.Join(dir, "app.db"),
		"-o", xlsx,
		"--metrics-textfile", textfile,
	)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "wrote 2 sheets")
	assert.Contains(t, stderr, "run_id=")

	stdout, _, err := execute(t, "inspect", xlsx, "--sheet", "Users")
	require.NoError(t, err)

	var sheet models.Sheet
	require.NoError(t, json.Unmarshal([]byte(stdout), &sheet))
	assert.Equal(t, []string{"full_name", "manager"}, sheet.Columns)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, map[string]interface{}{"full_name": "Ben", "manager": "Bob"}, sheet.Rows[1].C)
	assert.Equal(t, &models.PrintArea{R1: 1, C1: 1, R2: 4, C2: 2}, sheet.PrintArea)

	stdout, _, err = execute(t, "inspect", xlsx, "--summary")
	require.NoError(t, err)
	assert.Equal(t, "Managers\t2 rows\tA1:A3\nUsers\t3 rows\tA1:B4\n", stdout)

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `sheetexport_rows_total{sheet="Users"} 3`)
}

func TestExport_JSON(t *testing.T) {
	dir := setup(t)
	sheetsDir := filepath.Join(dir, "sheets")

	stdout, stderr, err := execute(t, "export",
		"-d", filepath.Join(dir, "sheets.yaml"),
		"--db", filepath.Join(dir, "app.db"),
		"--format", "json",
		"--declared-order",
		"--sheets-dir", sheetsDir,
	)
	require.NoError(t, err, stderr)

	var wb models.Workbook
	require.NoError(t, json.Unmarshal([]byte(stdout), &wb))
	require.Len(t, wb.Sheets, 2)
	assert.Equal(t, "Users", wb.Sheets[0].Name)
	assert.Equal(t, "Managers", wb.Sheets[1].Name)
	assert.Equal(t, "sheets.yaml", wb.BookName)

	for _, name := range []string{"Users", "Managers"} {
		assert.FileExists(t, filepath.Join(sheetsDir, name+".json"))
	}
}

func TestExport_ConfigFile(t *testing.T) {
	dir := setup(t)
	out := filepath.Join(dir, "out.json")
	cfg := strings.Join([]string{
		"database:",
		"  dsn: " + filepath.Join(dir, "app.db"),
		"definitions: " + filepath.Join(dir, "sheets.yaml"),
		"output:",
		"  format: json",
		"  path: " + out,
		"log:",
		"  format: json",
	}, "\n")
	cfgPath := filepath.Join(dir, "sheetexport.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	_, stderr, err := execute(t, "export", "--config", cfgPath)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, `"msg":"export finished"`)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var wb models.Workbook
	require.NoError(t, json.Unmarshal(data, &wb))
	assert.Equal(t, "out.json", wb.BookName)
	assert.Equal(t, "Managers", wb.Sheets[0].Name)
}

func TestExport_Errors(t *testing.T) {
	dir := setup(t)

	_, _, err := execute(t, "export")
	assert.ErrorContains(t, err, "database.dsn: is required")

	_, _, err = execute(t, "export", "-d", filepath.Join(dir, "missing.yaml"), "--db", filepath.Join(dir, "app.db"))
	assert.ErrorContains(t, err, "failed to read definitions")

	_, _, err = execute(t, "export", "-d", filepath.Join(dir, "sheets.yaml"), "--db", filepath.Join(dir, "app.db"), "--format", "csv")
	assert.ErrorContains(t, err, "output.format")

	_, _, err = execute(t, "inspect", filepath.Join(dir, "missing.xlsx"))
	assert.ErrorContains(t, err, "file not found")
}
