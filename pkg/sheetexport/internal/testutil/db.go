// Package testutil provides a seeded SQLite store and recording fakes shared
// by the sheetexport tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

// Fixture tables:
//
//	employees: 1 Alice, 2 Bob
//	users:     1 Ann (active, Alice), 2 Ben (active, Bob), 3 Cal (inactive, Alice),
//	           4 Dia (active, Alice), 5 Eve (inactive, no manager)
//	groups:    1 admins, 2 staff, 3 ops
//	members:   Ann admins+staff, Ben staff, Dia ops
//	tickets:   1 Broken VPN (Ann), 2 New laptop (Ann), 3 Reset password (Ben)
const fixtureSQL = `
CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT,
	active BOOLEAN NOT NULL,
	manager_id INTEGER REFERENCES employees(id)
);
CREATE TABLE "groups" (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE user_groups (
	user_id INTEGER NOT NULL REFERENCES users(id),
	group_id INTEGER NOT NULL REFERENCES "groups"(id)
);
CREATE TABLE tickets (id INTEGER PRIMARY KEY, title TEXT NOT NULL, owner_id INTEGER REFERENCES users(id));

INSERT INTO employees (id, name) VALUES (1, 'Alice'), (2, 'Bob');
INSERT INTO users (id, full_name, email, active, manager_id) VALUES
	(1, 'Ann', 'ann@example.com', TRUE, 1),
	(2, 'Ben', 'ben@example.com', TRUE, 2),
	(3, 'Cal', 'cal@example.com', FALSE, 1),
	(4, 'Dia', 'dia@example.com', TRUE, 1),
	(5, 'Eve', NULL, FALSE, NULL);
INSERT INTO "groups" (id, name) VALUES (1, 'admins'), (2, 'staff'), (3, 'ops');
INSERT INTO user_groups (user_id, group_id) VALUES (1, 1), (1, 2), (2, 2), (4, 3);
INSERT INTO tickets (id, title, owner_id) VALUES
	(1, 'Broken VPN', 1), (2, 'New laptop', 1), (3, 'Reset password', 2);
`

// Schema returns the entity metadata matching the fixture tables.
func Schema(t *testing.T) *store.Schema {
	t.Helper()
	schema, err := store.NewSchema(
		&store.Entity{
			Name:    "Employee",
			Table:   "employees",
			Display: "name",
			Fields:  []string{"name"},
			ToMany: map[string]store.ToMany{
				"reports": {Model: "User", Column: "manager_id"},
			},
		},
		&store.Entity{
			Name:    "User",
			Table:   "users",
			Display: "full_name",
			Fields:  []string{"full_name", "email", "active"},
			ToOne: map[string]store.ToOne{
				"manager": {Model: "Employee", Column: "manager_id"},
			},
			ToMany: map[string]store.ToMany{
				"groups":  {Model: "Group", Through: "user_groups", Source: "user_id", Target: "group_id"},
				"tickets": {Model: "Ticket", Column: "owner_id"},
			},
		},
		&store.Entity{
			Name:    "Group",
			Table:   "groups",
			Display: "name",
			Fields:  []string{"name"},
		},
		&store.Entity{
			Name:    "Ticket",
			Table:   "tickets",
			Display: "title",
			Fields:  []string{"title"},
			ToOne: map[string]store.ToOne{
				"owner": {Model: "User", Column: "owner_id"},
			},
		},
	)
	require.NoError(t, err)
	return schema
}

// OpenStore creates a seeded SQLite database in a temp dir.
func OpenStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return OpenStoreWith(t, store.DefaultDriver, filepath.Join(t.TempDir(), "fixture.db"))
}

// OpenStoreWith opens dsn with driver and seeds the fixture tables. The
// driver must be registered by the calling test binary.
func OpenStoreWith(t *testing.T, driver, dsn string) *store.SQLStore {
	t.Helper()
	st, err := store.Open(driver, dsn, Schema(t))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	// One statement per Exec; not every driver accepts a batch.
	for _, stmt := range strings.Split(fixtureSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err = st.DB().Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return st
}
