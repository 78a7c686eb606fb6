/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Entity is a typed record owned by a store.
type Entity struct {
	// ID is assigned by the store at insertion and never reused.
	ID string
	// Type names the schema the entity conforms to.
	Type string
	// Attributes holds the attribute values; unset attributes read as null.
	Attributes map[string]Value
	// Relationships holds the stored references per relationship name.
	// A to-one relationship holds at most one reference.
	Relationships map[string][]EntityRef
}

// NewEntity returns an empty entity of the given type.
func NewEntity(entityType, id string) *Entity {
	return &Entity{
		ID:            id,
		Type:          entityType,
		Attributes:    make(map[string]Value),
		Relationships: make(map[string][]EntityRef),
	}
}

// Ref returns the reference that identifies e.
func (e *Entity) Ref() EntityRef {
	return EntityRef{Type: e.Type, ID: e.ID}
}

// Get returns the attribute value stored under name, or null.
func (e *Entity) Get(name string) Value {
	if e.Attributes == nil {
		return NullValue()
	}
	return e.Attributes[name]
}

// Set stores an attribute value.
func (e *Entity) Set(name string, v Value) {
	if e.Attributes == nil {
		e.Attributes = make(map[string]Value)
	}
	if v.IsNull() {
		delete(e.Attributes, name)
		return
	}
	e.Attributes[name] = v
}

// Related returns the references stored under a relationship name.
func (e *Entity) Related(name string) []EntityRef {
	if e.Relationships == nil {
		return nil
	}
	return e.Relationships[name]
}

// Link replaces the references of a relationship.
func (e *Entity) Link(name string, refs ...EntityRef) {
	if e.Relationships == nil {
		e.Relationships = make(map[string][]EntityRef)
	}
	if len(refs) == 0 {
		delete(e.Relationships, name)
		return
	}
	e.Relationships[name] = append([]EntityRef(nil), refs...)
}

// Unlink drops every reference to target from every relationship of e and
// reports whether anything changed.
func (e *Entity) Unlink(target EntityRef) bool {
	changed := false
	for name, refs := range e.Relationships {
		kept := refs[:0:0]
		for _, r := range refs {
			if r == target {
				changed = true
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(e.Relationships, name)
		} else {
			e.Relationships[name] = kept
		}
	}
	return changed
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	c := NewEntity(e.Type, e.ID)
	for k, v := range e.Attributes {
		c.Attributes[k] = v
	}
	for k, refs := range e.Relationships {
		c.Relationships[k] = append([]EntityRef(nil), refs...)
	}
	return c
}
