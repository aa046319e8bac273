package parser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/internal/testutil"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

func loadTestdata(t *testing.T) *Definitions {
	t.Helper()
	d, err := Load(filepath.Join("testdata", "definitions.yaml"))
	require.NoError(t, err)
	return d
}

func TestLoad_Schema(t *testing.T) {
	d := loadTestdata(t)

	var names []string
	for _, e := range d.Schema().Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Employee", "User", "Group", "Ticket"}, names)

	user, err := d.Schema().Entity("User")
	require.NoError(t, err)
	assert.Equal(t, "users", user.Table)
	assert.Equal(t, "id", user.PrimaryKey)
	assert.Equal(t, []string{"full_name", "email", "active"}, user.Fields)
	assert.Equal(t, []string{"manager"}, user.ToOneFields())
	assert.Equal(t, []string{"groups", "tickets"}, user.ToManyFields())
	assert.Equal(t, store.ToMany{Model: "Group", Through: "user_groups", Source: "user_id", Target: "group_id"}, user.ToMany["groups"])

	group, err := d.Schema().Entity("Group")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPrimaryKey, group.PrimaryKey)
}

func TestLoad_Sheets(t *testing.T) {
	d := loadTestdata(t)

	names, err := d.SheetNames(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Users", "Tickets", "Groups"}, names)

	names, err = d.SheetNames(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tickets", "Users", "Groups"}, names)

	users, err := d.SheetDefinition("Users")
	require.NoError(t, err)
	assert.Equal(t, "User", users.Model)
	assert.Equal(t, []string{"full_name", "manager", "groups"}, users.ColumnNames())
	assert.Empty(t, users.Columns[0].References)
	assert.Equal(t, []models.Reference{{Label: "Name", Path: "name"}}, users.Columns[1].References)

	require.NotNil(t, users.Filters)
	require.NotNil(t, users.Filters.Include)
	assert.Nil(t, users.Filters.Exclude)
	assert.Equal(t, []models.CriteriaItem{{Name: "active", Values: []interface{}{true}}}, users.Filters.Include.And)

	assert.Equal(t, &models.HeaderSpec{Bold: true, Fill: "#DDEBF7"}, users.Formatting.Header)
	assert.True(t, users.Formatting.FreezeHeader)
	assert.True(t, users.Formatting.AutoFilter)
	assert.Equal(t, map[string]float64{"full_name": 24}, users.Formatting.ColumnWidths)

	tickets, err := d.SheetDefinition("Tickets")
	require.NoError(t, err)
	assert.Equal(t, []string{"full_name", "manager.name"}, tickets.Columns[1].Paths())
	assert.Equal(t, []string{models.PrimaryKeyPath}, tickets.Columns[0].Paths())
	assert.Equal(t, &models.TableSpec{Style: "TableStyleLight9"}, tickets.Formatting.Table)

	_, err = d.SheetDefinition("Invoices")
	assert.ErrorIs(t, err, ErrUnknownSheet)
}

func TestParse_NoSequence(t *testing.T) {
	d, err := Parse([]byte(`
sheets:
  B: {dataset: {model: X}}
  A: {dataset: {model: Y}}
`))
	require.NoError(t, err)

	names, err := d.SheetNames(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, names)

	b, err := d.SheetDefinition("B")
	require.NoError(t, err)
	assert.Empty(t, b.Columns, "required fields are checked at projection time")
}

func TestParse_Empty(t *testing.T) {
	d, err := Parse(nil)
	require.NoError(t, err)
	names, err := d.SheetNames(true)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, d.Schema().Entities())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown top-level key", "sheet: {}", "field sheet not found"},
		{"unknown sheet key", "sheets: {A: {dataset: {model: X}, colour: red}}", "field colour not found"},
		{"unknown filter mode", "sheets: {A: {filters: {ONLY: {}}}}", "field ONLY not found"},
		{"unknown sequence entry", "sheets: {A: {}}\nexport: {sequence: [B]}", `unknown sheet: "B"`},
		{"relationship to undeclared model", "models: {A: {table: a, to_one: {b: {model: B, column: b_id}}}}", "unknown entity"},
		{"model without table", "models: {A: {fields: [x]}}", "table is required"},
		{"malformed", "sheets: [", "failed to parse definitions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefinitions_Export(t *testing.T) {
	d := loadTestdata(t)
	st := store.New(testutil.OpenStore(t).DB(), d.Schema())
	w := &testutil.RecordingWriter{}

	e := sheetexport.NewExporter(d, st, w, sheetexport.DefaultOptions())
	require.NoError(t, e.Export(context.Background()))

	assert.Equal(t, []string{"update:Tickets", "update:Users", "update:Groups", "finalize"}, w.Calls)
	assert.Equal(t, [][]interface{}{
		{"Broken VPN", "Ann - Alice"},
		{"New laptop", "Ann - Alice"},
		{"Reset password", "Ben - Bob"},
	}, w.Sheets[0].Rows)
	assert.Equal(t, [][]interface{}{
		{"Ann", "Alice", "* admins\n* staff"},
		{"Ben", "Bob", "* staff"},
		{"Dia", "Alice", "* ops"},
	}, w.Sheets[1].Rows)
	assert.Equal(t, [][]interface{}{{"admins"}, {"staff"}}, w.Sheets[2].Rows)
}
