/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sync"
)

// DefaultIndexMap partitions a single table by entity type and sorts by ID.
var DefaultIndexMap = map[string]string{
	"PK": "{EntityType}",
	"SK": "{EntityType}#{ID}",
}

// IndexMapRegistry is a registry for entity types and their DynamoDB index maps.

var (
	indexMapRegistry = make(map[string]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates an entity type with a DynamoDB index map (PK, SK, etc.).
// Templates may use the {EntityType} and {ID} macros; keys never change after insert.
func RegisterIndexMap(entityType string, idxMap map[string]string) {
	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[entityType] = idxMap
}

// GetIndexMap retrieves the index map for an entity type, if any.
func GetIndexMap(entityType string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[entityType]
	return m, ok
}

// IndexMapFor returns the registered index map for an entity type, falling
// back to DefaultIndexMap.
func IndexMapFor(entityType string) map[string]string {
	if m, ok := GetIndexMap(entityType); ok {
		return m
	}
	return DefaultIndexMap
}
