// Package parser loads sheet definitions and entity metadata from YAML.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

// ErrUnknownSheet indicates a sheet name that is not declared.
var ErrUnknownSheet = errors.New("unknown sheet")

type file struct {
	Models map[string]modelDoc `yaml:"models"`
	Sheets map[string]sheetDoc `yaml:"sheets"`
	Export exportDoc           `yaml:"export"`
}

type modelDoc struct {
	Table      string               `yaml:"table"`
	PrimaryKey string               `yaml:"primary_key"`
	Display    string               `yaml:"display"`
	Fields     []string             `yaml:"fields"`
	ToOne      map[string]toOneDoc  `yaml:"to_one"`
	ToMany     map[string]toManyDoc `yaml:"to_many"`
}

type toOneDoc struct {
	Model  string `yaml:"model"`
	Column string `yaml:"column"`
}

type toManyDoc struct {
	Model   string `yaml:"model"`
	Through string `yaml:"through"`
	Source  string `yaml:"source"`
	Target  string `yaml:"target"`
	Column  string `yaml:"column"`
}

type sheetDoc struct {
	Dataset    datasetDoc            `yaml:"dataset"`
	Filters    *models.FilterSpec    `yaml:"filters"`
	Formatting models.FormattingSpec `yaml:"formatting"`
}

type datasetDoc struct {
	Model string                `yaml:"model"`
	Data  map[string]*columnDoc `yaml:"data"`
}

type columnDoc struct {
	References []models.Reference `yaml:"references"`
}

type exportDoc struct {
	Sequence []string `yaml:"sequence"`
}

// Definitions is a parsed definitions file. It implements the definition
// source of an export run.
type Definitions struct {
	schema   *store.Schema
	sheets   map[string]*models.SheetDefinition
	order    []string
	sequence []string
}

// Load reads and parses a definitions file.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse parses a definitions document. Unknown keys are rejected. Required
// sheet fields are not checked here; a sheet missing its model or data fails
// when it is projected.
func Parse(data []byte) (*Definitions, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}

	// Maps lose declaration order, so read it from the node tree.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}
	doc := document(&root)

	schema, err := buildSchema(f.Models, keys(mappingValue(doc, "models")))
	if err != nil {
		return nil, err
	}

	d := &Definitions{
		schema: schema,
		sheets: make(map[string]*models.SheetDefinition, len(f.Sheets)),
	}

	// Sheets and their columns in declaration order
	sheetNodes := mappingValue(doc, "sheets")
	for _, name := range keys(sheetNodes) {
		sd := f.Sheets[name]
		def := &models.SheetDefinition{
			Name:       name,
			Model:      sd.Dataset.Model,
			Filters:    sd.Filters,
			Formatting: sd.Formatting,
		}
		dataNode := mappingValue(mappingValue(mappingValue(sheetNodes, name), "dataset"), "data")
		for _, col := range keys(dataNode) {
			c := models.Column{Name: col}
			if cd := sd.Dataset.Data[col]; cd != nil {
				c.References = cd.References
			}
			def.Columns = append(def.Columns, c)
		}
		d.sheets[name] = def
		d.order = append(d.order, name)
	}

	// The export sequence may only name declared sheets
	for _, name := range f.Export.Sequence {
		if _, ok := d.sheets[name]; !ok {
			return nil, fmt.Errorf("export sequence: %w: %q", ErrUnknownSheet, name)
		}
	}
	d.sequence = f.Export.Sequence
	return d, nil
}

func buildSchema(docs map[string]modelDoc, order []string) (*store.Schema, error) {
	entities := make([]*store.Entity, 0, len(order))
	for _, name := range order {
		m := docs[name]
		e := &store.Entity{
			Name:       name,
			Table:      m.Table,
			PrimaryKey: m.PrimaryKey,
			Display:    m.Display,
		}
		if e.PrimaryKey == "" {
			e.PrimaryKey = store.DefaultPrimaryKey
		}
		for _, f := range m.Fields {
			if f != e.PrimaryKey {
				e.Fields = append(e.Fields, f)
			}
		}
		if len(m.ToOne) > 0 {
			e.ToOne = make(map[string]store.ToOne, len(m.ToOne))
			for rel, r := range m.ToOne {
				e.ToOne[rel] = store.ToOne{Model: r.Model, Column: r.Column}
			}
		}
		if len(m.ToMany) > 0 {
			e.ToMany = make(map[string]store.ToMany, len(m.ToMany))
			for rel, r := range m.ToMany {
				e.ToMany[rel] = store.ToMany{
					Model: r.Model, Through: r.Through, Source: r.Source, Target: r.Target, Column: r.Column,
				}
			}
		}
		entities = append(entities, e)
	}

	schema, err := store.NewSchema(entities...)
	if err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	return schema, nil
}

// Schema returns the entity metadata declared under models.
func (d *Definitions) Schema() *store.Schema {
	return d.schema
}

// SheetNames returns export.sequence when exportOrder is set and a sequence
// is declared, otherwise the sheets in declaration order.
func (d *Definitions) SheetNames(exportOrder bool) ([]string, error) {
	if exportOrder && len(d.sequence) > 0 {
		return append([]string(nil), d.sequence...), nil
	}
	return append([]string(nil), d.order...), nil
}

// SheetDefinition returns the named sheet definition.
func (d *Definitions) SheetDefinition(name string) (*models.SheetDefinition, error) {
	def, ok := d.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSheet, name)
	}
	return def, nil
}

func document(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// keys returns the keys of a mapping node in document order.
func keys(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]string, 0, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		out = append(out, n.Content[i].Value)
	}
	return out
}
