package store

import (
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/accidentalproductions/tetristats/ent/schema"
)

// Table names.
const (
	ScoresTable   = "scores"
	SettingsTable = "settings"
	SamplesTable  = "analysis_samples"
)

var (
	scoresTable   = newTable(ScoresTable, entschema.Score{})
	settingsTable = newTable(SettingsTable, entschema.Setting{})
	samplesTable  = newTable(SamplesTable, entschema.AnalysisSample{})
)

// Tables returns the migration tables for every entity.
func Tables() []*schema.Table {
	return []*schema.Table{scoresTable.Table, settingsTable.Table, samplesTable.Table}
}

// table pairs a migration table with the ent field descriptors it was built
// from, so writes can run the same validators the schema declares.
type table struct {
	*schema.Table
	fields map[string]*field.Descriptor
}

// newTable builds a migration table from an ent schema definition. Mixin
// fields come first; an int auto-increment "id" is added unless the schema
// declares its own.
func newTable(name string, s ent.Interface) table {
	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	t := table{
		Table:  &schema.Table{Name: name},
		fields: make(map[string]*field.Descriptor),
	}
	byField := make(map[string]*schema.Column)
	for _, f := range fields {
		d := f.Descriptor()
		col := &schema.Column{
			Name:     columnName(d),
			Type:     d.Info.Type,
			Size:     int64(d.Size),
			Unique:   d.Unique,
			Nullable: d.Optional,
			Comment:  d.Comment,
		}
		if d.Name == "id" {
			t.PrimaryKey = []*schema.Column{col}
		}
		t.Columns = append(t.Columns, col)
		t.fields[col.Name] = d
		byField[d.Name] = col
	}
	if len(t.PrimaryKey) == 0 {
		id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
		t.Columns = append([]*schema.Column{id}, t.Columns...)
		t.PrimaryKey = []*schema.Column{id}
	}

	for _, ix := range indexes {
		d := ix.Descriptor()
		idx := &schema.Index{
			Name:   strings.ToLower(name + "_" + strings.Join(d.Fields, "_")),
			Unique: d.Unique,
		}
		for _, f := range d.Fields {
			idx.Columns = append(idx.Columns, byField[f])
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return t
}

func columnName(d *field.Descriptor) string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// validate runs the schema's field validators against the values about to
// be written. Nil values are skipped.
func (t table) validate(values map[string]any) error {
	for col, v := range values {
		d, ok := t.fields[col]
		if !ok || v == nil {
			continue
		}
		for _, fn := range d.Validators {
			var err error
			switch fn := fn.(type) {
			case func(string) error:
				s, ok := v.(string)
				if !ok {
					continue
				}
				err = fn(s)
			case func(int) error:
				n, ok := v.(int)
				if !ok {
					continue
				}
				err = fn(n)
			}
			if err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name, col, err)
			}
		}
	}
	return nil
}
