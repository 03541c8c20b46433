// Package loader reads declared catalogs from YAML files.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quelgo/quel/catalog"
)

type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name        string           `yaml:"name"`
	Columns     []yamlColumn     `yaml:"columns"`
	PrimaryKey  []string         `yaml:"primary_key"`
	Unique      [][]string       `yaml:"unique"`
	ForeignKeys []yamlForeignKey `yaml:"foreign_keys"`
}

type yamlColumn struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Size     int     `yaml:"size"`
	Nullable bool    `yaml:"nullable"`
	Default  *string `yaml:"default"`
}

type yamlForeignKey struct {
	Columns    []string `yaml:"columns"`
	References string   `yaml:"references"`
	RefColumns []string `yaml:"ref_columns"`
	OnDelete   string   `yaml:"on_delete"`
	OnUpdate   string   `yaml:"on_update"`
}

func buildRelation(t yamlTable) (catalog.Relation, error) {
	var cols []catalog.Column
	for _, c := range t.Columns {
		kind, err := catalog.ParseKind(c.Type)
		if err != nil {
			return catalog.Relation{}, fmt.Errorf("table %q column %q: %w", t.Name, c.Name, err)
		}
		typ := catalog.Type{Kind: kind, Null: c.Nullable, Size: c.Size}
		cols = append(cols, catalog.Column{Name: c.Name, Type: typ, Default: c.Default})
	}

	var cons []catalog.Constraint
	if len(t.PrimaryKey) > 0 {
		cons = append(cons, catalog.PrimaryKeyOn(t.PrimaryKey...))
	}
	for _, u := range t.Unique {
		cons = append(cons, catalog.UniqueOn(u...))
	}
	for _, fk := range t.ForeignKeys {
		cons = append(cons, catalog.ForeignKeyOn(
			fk.Columns, fk.References, fk.RefColumns,
			catalog.Action(fk.OnDelete), catalog.Action(fk.OnUpdate),
		))
	}
	return catalog.NewTable(cols, cons...)
}

// LoadCatalog reads a YAML catalog definition. Tables may reference
// each other in any declaration order; creation is retried until the
// foreign key dependencies resolve.
func LoadCatalog(filename string) (catalog.Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	cat := catalog.New()
	remaining := yf.Tables
	for len(remaining) > 0 {
		var deferred []yamlTable
		var lastErr error
		for _, t := range remaining {
			rel, err := buildRelation(t)
			if err != nil {
				return nil, err
			}
			next, err := cat.CreateRelation(catalog.Public, t.Name, rel)
			if err != nil {
				deferred = append(deferred, t)
				lastErr = err
				continue
			}
			cat = next
		}
		if len(deferred) == len(remaining) {
			return nil, lastErr
		}
		remaining = deferred
	}
	return cat, nil
}
