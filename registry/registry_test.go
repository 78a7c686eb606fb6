/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/storagemodels"
)

const pokemonSchemas = `
schemas:
  - name: Type
    attributes:
      - {name: name, kind: string}
    relationships:
      - {name: pokemons, target: Pokemon, toMany: true, inverse: type}
  - name: Pokemon
    attributes:
      - {name: name, kind: string}
      - {name: level, kind: integer, default: 1}
      - {name: height, kind: real, default: 0}
    relationships:
      - {name: type, target: Type}
`

func TestSchemaRegistry(t *testing.T) {
	t.Run("LoadYAML", func(t *testing.T) {
		r := New()
		if err := r.LoadYAML(strings.NewReader(pokemonSchemas)); err != nil {
			t.Fatalf("LoadYAML failed: %v", err)
		}
		names := r.Names()
		if len(names) != 2 || names[0] != "Pokemon" || names[1] != "Type" {
			t.Fatalf("Unexpected names %v", names)
		}

		pokemon, err := r.Get("Pokemon")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		defaults := pokemon.Defaults()
		if defaults["level"] != storagemodels.IntValue(1) {
			t.Errorf("Expected level default 1, got %v", defaults["level"])
		}
		if defaults["height"] != storagemodels.RealValue(0) {
			t.Errorf("Expected height default coerced to real, got %v", defaults["height"])
		}
		if _, ok := defaults["name"]; ok {
			t.Error("Expected no default for name")
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if _, err := New().Get("Digimon"); !errors.IsNoSchema(err) {
			t.Errorf("Expected no schema error, got %v", err)
		}
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		r := New()
		s := &storagemodels.Schema{Name: "Type"}
		if err := r.Register(s); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if err := r.Register(&storagemodels.Schema{Name: "Type"}); err == nil {
			t.Error("Expected duplicate registration to fail")
		}
	})

	t.Run("InvalidSchemas", func(t *testing.T) {
		tests := []struct {
			name   string
			schema *storagemodels.Schema
		}{
			{"nil", nil},
			{"no name", &storagemodels.Schema{}},
			{"duplicate field", &storagemodels.Schema{Name: "A", Attributes: []storagemodels.AttributeDef{
				{Name: "x", Kind: storagemodels.KindInt}, {Name: "x", Kind: storagemodels.KindString},
			}}},
			{"bad default", &storagemodels.Schema{Name: "A", Attributes: []storagemodels.AttributeDef{
				{Name: "x", Kind: storagemodels.KindInt, Default: storagemodels.StringValue("one")},
			}}},
			{"to-one inverse", &storagemodels.Schema{Name: "A", Relationships: []storagemodels.RelationshipDef{
				{Name: "b", Target: "B", Inverse: "a"},
			}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := New().Register(tt.schema); !errors.IsValidationError(err) {
					t.Errorf("Expected validation error, got %v", err)
				}
			})
		}
	})

	t.Run("CheckRelationshipGraph", func(t *testing.T) {
		r := New()
		r.MustRegister(&storagemodels.Schema{
			Name:          "Pokemon",
			Relationships: []storagemodels.RelationshipDef{{Name: "type", Target: "Type"}},
		})
		if err := r.Check(); err == nil {
			t.Error("Expected unknown target to fail the check")
		}

		r.MustRegister(&storagemodels.Schema{
			Name: "Type",
			Relationships: []storagemodels.RelationshipDef{
				{Name: "pokemons", Target: "Pokemon", ToMany: true, Inverse: "trainer"},
			},
		})
		if err := r.Check(); err == nil {
			t.Error("Expected missing inverse to fail the check")
		}
	})

	t.Run("LoadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.yaml")
		if err := os.WriteFile(path, []byte(pokemonSchemas), 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		r := New()
		if err := r.LoadFile(path); err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}
		if err := New().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Expected missing file to fail")
		}
	})
}

func TestIndexMapRegistry(t *testing.T) {
	if got := IndexMapFor("Unregistered"); got["PK"] != "{EntityType}" {
		t.Errorf("Expected default index map, got %v", got)
	}

	RegisterIndexMap("Trainer", map[string]string{"PK": "TRAINER#{ID}", "SK": "TRAINER#{ID}"})
	defer RegisterIndexMap("Trainer", DefaultIndexMap)

	m, ok := GetIndexMap("Trainer")
	if !ok || m["PK"] != "TRAINER#{ID}" {
		t.Errorf("Unexpected index map %v (%v)", m, ok)
	}
	if got := IndexMapFor("Trainer"); got["SK"] != "TRAINER#{ID}" {
		t.Errorf("Expected registered index map, got %v", got)
	}
}
