/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/suparena/entityrecord/storagemodels"
)

// Item attribute names besides the index map keys.
const (
	attrAttributes    = "Attrs"
	attrRelationships = "Rels"
)

// itemHeader is the fixed part of every stored entity.
type itemHeader struct {
	ID         string `dynamodbav:"ID"`
	EntityType string `dynamodbav:"EntityType"`
	Seq        int64  `dynamodbav:"Seq"`
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros fills the {EntityType} and {ID} macros of every template in
// indexMap.
func expandMacros(indexMap map[string]string, ref storagemodels.EntityRef) (map[string]string, error) {
	values := map[string]string{
		"EntityType": ref.Type,
		"ID":         ref.ID,
	}

	res := make(map[string]string, len(indexMap))
	var unknown string
	for field, template := range indexMap {
		res[field] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			v, ok := values[key]
			if !ok {
				unknown = key
			}
			return v
		})
	}
	if unknown != "" {
		return nil, fmt.Errorf("unsupported index map macro {%s}", unknown)
	}
	return res, nil
}

// buildKeyFromExpanded builds a DynamoDB primary key from the expanded index map.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// encodeItem renders an entity and its index keys as a DynamoDB item.
func encodeItem(e *storagemodels.Entity, seq int64, expanded map[string]string) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(itemHeader{ID: e.ID, EntityType: e.Type, Seq: seq})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item header: %w", err)
	}
	for k, v := range expanded {
		item[k] = &types.AttributeValueMemberS{Value: v}
	}

	attrs := make(map[string]types.AttributeValue, len(e.Attributes))
	for name, v := range e.Attributes {
		if av := encodeValue(v); av != nil {
			attrs[name] = av
		}
	}
	item[attrAttributes] = &types.AttributeValueMemberM{Value: attrs}

	rels := make(map[string]types.AttributeValue, len(e.Relationships))
	for name, refs := range e.Relationships {
		if len(refs) == 0 {
			continue
		}
		av, err := attributevalue.Marshal(refs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal relationship %s: %w", name, err)
		}
		rels[name] = av
	}
	item[attrRelationships] = &types.AttributeValueMemberM{Value: rels}
	return item, nil
}

// decodeItem reads an entity back using its schema for attribute kinds.
func decodeItem(schema *storagemodels.Schema, item map[string]types.AttributeValue) (*storagemodels.Entity, int64, error) {
	var h itemHeader
	if err := attributevalue.UnmarshalMap(item, &h); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal item header: %w", err)
	}
	e := storagemodels.NewEntity(h.EntityType, h.ID)

	if m, ok := item[attrAttributes].(*types.AttributeValueMemberM); ok {
		for name, av := range m.Value {
			def, known := schema.Attribute(name)
			if !known {
				continue
			}
			v, err := decodeValue(def.Kind, av)
			if err != nil {
				return nil, 0, fmt.Errorf("entity %s attribute %s: %w", h.ID, name, err)
			}
			e.Set(name, v)
		}
	}

	if m, ok := item[attrRelationships].(*types.AttributeValueMemberM); ok {
		for name, av := range m.Value {
			if _, known := schema.Relationship(name); !known {
				continue
			}
			var refs []storagemodels.EntityRef
			if err := attributevalue.Unmarshal(av, &refs); err != nil {
				return nil, 0, fmt.Errorf("entity %s relationship %s: %w", h.ID, name, err)
			}
			e.Link(name, refs...)
		}
	}
	return e, h.Seq, nil
}

func encodeValue(v storagemodels.Value) types.AttributeValue {
	switch v.Kind() {
	case storagemodels.KindString:
		s, _ := v.Str()
		return &types.AttributeValueMemberS{Value: s}
	case storagemodels.KindInt:
		i, _ := v.Int()
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(i, 10)}
	case storagemodels.KindReal:
		f, _ := v.Float()
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case storagemodels.KindBool:
		b, _ := v.Bool()
		return &types.AttributeValueMemberBOOL{Value: b}
	case storagemodels.KindTime:
		t, _ := v.Time()
		return &types.AttributeValueMemberS{Value: strfmt.DateTime(t).String()}
	}
	return nil
}

func decodeValue(kind storagemodels.Kind, av types.AttributeValue) (storagemodels.Value, error) {
	switch tv := av.(type) {
	case *types.AttributeValueMemberNULL:
		return storagemodels.NullValue(), nil
	case *types.AttributeValueMemberS:
		if kind == storagemodels.KindTime {
			dt, err := strfmt.ParseDateTime(tv.Value)
			if err != nil {
				return storagemodels.NullValue(), err
			}
			return storagemodels.TimeValue(time.Time(dt)), nil
		}
		return storagemodels.StringValue(tv.Value), nil
	case *types.AttributeValueMemberN:
		if kind == storagemodels.KindInt {
			i, err := strconv.ParseInt(tv.Value, 10, 64)
			if err != nil {
				return storagemodels.NullValue(), err
			}
			return storagemodels.IntValue(i), nil
		}
		f, err := strconv.ParseFloat(tv.Value, 64)
		if err != nil {
			return storagemodels.NullValue(), err
		}
		return storagemodels.RealValue(f), nil
	case *types.AttributeValueMemberBOOL:
		return storagemodels.BoolValue(tv.Value), nil
	}
	return storagemodels.NullValue(), fmt.Errorf("unsupported attribute value %T", av)
}
