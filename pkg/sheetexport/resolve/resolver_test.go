package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

type fakeRecord struct {
	entity  *store.Entity
	attrs   map[string]interface{}
	related map[string]*fakeRecord
	display string
}

func (r *fakeRecord) Entity() *store.Entity { return r.entity }

func (r *fakeRecord) Attribute(_ context.Context, name string) (interface{}, error) {
	if name == "pk" {
		name = r.entity.PrimaryKey
	}
	v, ok := r.attrs[name]
	if !ok {
		return nil, fmt.Errorf("no attribute %q", name)
	}
	return v, nil
}

func (r *fakeRecord) Related(_ context.Context, name string) (store.Record, error) {
	rel := r.related[name]
	if rel == nil {
		return nil, nil
	}
	return rel, nil
}

func (r *fakeRecord) RelatedMany(context.Context, string) ([]store.Record, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRecord) String() string { return r.display }

func testSchema(t *testing.T) *store.Schema {
	t.Helper()
	s, err := store.NewSchema(
		&store.Entity{Name: "Region", Table: "regions", Fields: []string{"code"}},
		&store.Entity{
			Name: "Customer", Table: "customers", Fields: []string{"b"},
			ToOne: map[string]store.ToOne{"region": {Model: "Region", Column: "region_id"}},
		},
		&store.Entity{
			Name: "Order", Table: "orders", Fields: []string{"c", "note"},
			ToOne:  map[string]store.ToOne{"a": {Model: "Customer", Column: "a_id"}},
			ToMany: map[string]store.ToMany{"lines": {Model: "Region", Column: "order_id"}},
		},
	)
	require.NoError(t, err)
	return s
}

func newOrder(t *testing.T, s *store.Schema) *fakeRecord {
	t.Helper()
	order, _ := s.Entity("Order")
	customer, _ := s.Entity("Customer")
	region, _ := s.Entity("Region")

	return &fakeRecord{
		entity:  order,
		attrs:   map[string]interface{}{"id": int64(7), "c": 42, "note": nil},
		display: "Order #7",
		related: map[string]*fakeRecord{
			"a": {
				entity:  customer,
				attrs:   map[string]interface{}{"id": int64(3), "b": "ACME"},
				display: "ACME Corp",
				related: map[string]*fakeRecord{
					"region": {entity: region, attrs: map[string]interface{}{"id": int64(1), "code": []byte("EU")}, display: "Europe"},
				},
			},
		},
	}
}

func TestCompilePath(t *testing.T) {
	s := testSchema(t)

	p, err := CompilePath(s, "Order", "a.region.code")
	require.NoError(t, err)
	assert.Equal(t, []Hop{{"a", Related}, {"region", Related}, {"code", Attribute}}, p.Hops)

	p, err = CompilePath(s, "Order", "a")
	require.NoError(t, err)
	assert.Equal(t, []Hop{{"a", Related}}, p.Hops)
}

func TestCompilePath_Errors(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		path   string
		hop    string
		entity string
		reason string
	}{
		{"a.missing", "missing", "Customer", "undefined hop"},
		{"c.b", "c", "Order", "cannot traverse field"},
		{"lines.code", "lines", "Order", "cannot traverse to-many relationship"},
		{"a..b", "", "Customer", "empty hop"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := CompilePath(s, "Order", tt.path)
			var pe *PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.hop, pe.Hop)
			assert.Equal(t, tt.entity, pe.Entity)
			assert.Equal(t, tt.reason, pe.Reason)
		})
	}

	_, err := CompilePath(s, "Nobody", "x")
	assert.ErrorIs(t, err, store.ErrUnknownEntity)
}

func TestResolve(t *testing.T) {
	s := testSchema(t)
	order := newOrder(t, s)
	ctx := context.Background()

	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"default primary key", nil, "7"},
		{"single hop", []string{"c"}, "42"},
		{"two paths", []string{"a.b", "c"}, "ACME - 42"},
		{"relationship renders display", []string{"a"}, "ACME Corp"},
		{"bytes render as text", []string{"a.region.code"}, "EU"},
		{"leading null fragment", []string{"note", "c"}, "42"},
		{"trailing null fragment", []string{"c", "note"}, "42 - "},
		{"null fragment before related field", []string{"note", "a.b"}, "ACME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(s, "Order", tt.paths)
			require.NoError(t, err)
			got, ok, err := r.Resolve(ctx, order)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Null(t *testing.T) {
	s := testSchema(t)
	ctx := context.Background()

	r, err := Compile(s, "Order", []string{"c"})
	require.NoError(t, err)
	_, ok, err := r.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// A null relationship in the middle of a path yields an empty fragment.
	order := newOrder(t, s)
	order.related["a"].related["region"] = nil
	r, err = Compile(s, "Order", []string{"a.region.code", "a.b"})
	require.NoError(t, err)
	got, ok, err := r.Resolve(ctx, order)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ACME", got)
}

func TestResolve_AttributeError(t *testing.T) {
	s := testSchema(t)
	order := newOrder(t, s)
	delete(order.attrs, "c")

	r, err := Compile(s, "Order", []string{"c"})
	require.NoError(t, err)
	_, _, err = r.Resolve(context.Background(), order)
	assert.ErrorContains(t, err, `reference path "c"`)
}

func TestResolveMany(t *testing.T) {
	s := testSchema(t)
	region, _ := s.Entity("Region")
	var recs []store.Record
	for _, code := range []string{"x", "y", "z"} {
		recs = append(recs, &fakeRecord{entity: region, attrs: map[string]interface{}{"code": code}})
	}

	r, err := Compile(s, "Region", []string{"code"})
	require.NoError(t, err)

	got, err := r.ResolveMany(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, "* x\n* y\n* z", got)

	got, err = r.ResolveMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "abc", Stringify([]byte("abc")))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "1.5", Stringify(1.5))
}
