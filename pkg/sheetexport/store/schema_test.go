package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	s, err := NewSchema(
		&Entity{Name: "Group", Table: "groups", Fields: []string{"name"}},
		&Entity{
			Name:   "User",
			Table:  "users",
			Fields: []string{"full_name"},
			ToOne:  map[string]ToOne{"manager": {Model: "User", Column: "manager_id"}},
			ToMany: map[string]ToMany{
				"groups": {Model: "Group", Through: "user_groups", Source: "user_id", Target: "group_id"},
			},
		},
	)
	require.NoError(t, err)

	u, err := s.Entity("User")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrimaryKey, u.PrimaryKey)
	assert.Equal(t, []string{"manager"}, u.ToOneFields())
	assert.Equal(t, []string{"groups"}, u.ToManyFields())
	assert.Len(t, s.Entities(), 2)
	assert.Equal(t, "Group", s.Entities()[0].Name)

	_, err = s.Entity("Nobody")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		entities []*Entity
		wantErr  string
	}{
		{"missing name", []*Entity{{Table: "t"}}, "entity name is required"},
		{"missing table", []*Entity{{Name: "A"}}, "table is required"},
		{"duplicate", []*Entity{{Name: "A", Table: "a"}, {Name: "A", Table: "b"}}, "declared twice"},
		{"unknown target", []*Entity{{
			Name: "A", Table: "a",
			ToOne: map[string]ToOne{"b": {Model: "B", Column: "b_id"}},
		}}, "unknown entity"},
		{"to-one without column", []*Entity{{
			Name: "A", Table: "a",
			ToOne: map[string]ToOne{"self": {Model: "A"}},
		}}, "column is required"},
		{"to-many without join", []*Entity{{
			Name: "A", Table: "a",
			ToMany: map[string]ToMany{"kids": {Model: "A"}},
		}}, "either through or column is required"},
		{"through without keys", []*Entity{{
			Name: "A", Table: "a",
			ToMany: map[string]ToMany{"kids": {Model: "A", Through: "a_a"}},
		}}, "through requires source and target"},
		{"field clash", []*Entity{{
			Name: "A", Table: "a", Fields: []string{"self"},
			ToOne: map[string]ToOne{"self": {Model: "A", Column: "self_id"}},
		}}, "both a field and a relationship"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.entities...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEntity_Column(t *testing.T) {
	e := &Entity{
		Name:       "User",
		PrimaryKey: "user_id",
		Fields:     []string{"full_name"},
		ToOne:      map[string]ToOne{"manager": {Model: "User", Column: "manager_id"}},
	}

	tests := []struct {
		name string
		want string
	}{
		{"pk", "user_id"},
		{"user_id", "user_id"},
		{"full_name", "full_name"},
		{"manager", "manager_id"},
	}
	for _, tt := range tests {
		got, err := e.Column(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := e.Column("groups")
	assert.ErrorIs(t, err, ErrUnknownField)
}
