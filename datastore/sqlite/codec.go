/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/entityrecord/storagemodels"
)

// encodeEntity renders attributes and stored relationships as JSON columns.
// Null attributes and empty relationships are omitted.
func encodeEntity(e *storagemodels.Entity) (string, string, error) {
	attrs := make(map[string]any, len(e.Attributes))
	for name, v := range e.Attributes {
		switch v.Kind() {
		case storagemodels.KindNull, storagemodels.KindRef:
			continue
		case storagemodels.KindTime:
			t, _ := v.Time()
			attrs[name] = strfmt.DateTime(t).String()
		default:
			attrs[name] = v.Interface()
		}
	}
	rels := make(map[string][]storagemodels.EntityRef, len(e.Relationships))
	for name, refs := range e.Relationships {
		if len(refs) > 0 {
			rels[name] = refs
		}
	}

	a, err := json.Marshal(attrs)
	if err != nil {
		return "", "", fmt.Errorf("marshal attributes of %s: %w", e.ID, err)
	}
	r, err := json.Marshal(rels)
	if err != nil {
		return "", "", fmt.Errorf("marshal relationships of %s: %w", e.ID, err)
	}
	return string(a), string(r), nil
}

// decodeEntity reads a row back using the schema for attribute kinds.
// Columns the schema no longer declares are ignored.
func decodeEntity(schema *storagemodels.Schema, id, attrs, rels string) (*storagemodels.Entity, error) {
	e := storagemodels.NewEntity(schema.Name, id)

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(attrs)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("entity %s attributes: %w", id, err)
	}
	for name, x := range raw {
		def, known := schema.Attribute(name)
		if !known {
			continue
		}
		v, err := decodeValue(def.Kind, x)
		if err != nil {
			return nil, fmt.Errorf("entity %s attribute %s: %w", id, name, err)
		}
		e.Set(name, v)
	}

	var links map[string][]storagemodels.EntityRef
	if err := json.Unmarshal([]byte(rels), &links); err != nil {
		return nil, fmt.Errorf("entity %s relationships: %w", id, err)
	}
	for name, refs := range links {
		if _, known := schema.Relationship(name); !known {
			continue
		}
		e.Link(name, refs...)
	}
	return e, nil
}

func decodeValue(kind storagemodels.Kind, x any) (storagemodels.Value, error) {
	switch tv := x.(type) {
	case nil:
		return storagemodels.NullValue(), nil
	case string:
		if kind == storagemodels.KindTime {
			dt, err := strfmt.ParseDateTime(tv)
			if err != nil {
				return storagemodels.NullValue(), err
			}
			return storagemodels.TimeValue(time.Time(dt)), nil
		}
		return storagemodels.StringValue(tv), nil
	case json.Number:
		if kind == storagemodels.KindInt {
			i, err := tv.Int64()
			if err != nil {
				return storagemodels.NullValue(), err
			}
			return storagemodels.IntValue(i), nil
		}
		f, err := tv.Float64()
		if err != nil {
			return storagemodels.NullValue(), err
		}
		return storagemodels.RealValue(f), nil
	case bool:
		return storagemodels.BoolValue(tv), nil
	}
	return storagemodels.NullValue(), fmt.Errorf("unsupported attribute value %T", x)
}
