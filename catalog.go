/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityrecord

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a thread-safe set of Records facades registered by name, one
// per store (for example "primary" and "archive").
type Catalog struct {
	mu      sync.RWMutex
	records map[string]*Records
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		records: make(map[string]*Records),
	}
}

// Register stores r under name.
func (c *Catalog) Register(name string, r *Records) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[name]; exists {
		return fmt.Errorf("records with name %q already registered", name)
	}
	c.records[name] = r
	return nil
}

// Get retrieves the Records registered under name.
func (c *Catalog) Get(name string) (*Records, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, exists := c.records[name]
	if !exists {
		return nil, fmt.Errorf("records with name %q not found", name)
	}
	return r, nil
}

// Remove unregisters and closes the Records under name.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	r, exists := c.records[name]
	delete(c.records, name)
	c.mu.Unlock()

	if !exists {
		return fmt.Errorf("records with name %q not found", name)
	}
	r.Close()
	return nil
}

// List returns the registered names in sorted order.
func (c *Catalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.records))
	for name := range c.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered Records and empties the catalog.
func (c *Catalog) Close() {
	c.mu.Lock()
	records := c.records
	c.records = make(map[string]*Records)
	c.mu.Unlock()

	for _, r := range records {
		r.Close()
	}
}
