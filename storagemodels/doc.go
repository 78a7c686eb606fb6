/*
Package storagemodels defines the data structures shared by the query core
and every store backend.

Key Types:

Value:
A tagged union over string, integer, real, boolean, timestamp, entity
reference and null. The zero Value is null.

	level := storagemodels.IntValue(36)
	name := storagemodels.StringValue("Charizard")
	kind := storagemodels.RefValue(fireType.Ref())

Equal and Compare implement the typed comparison rules: integers and reals
compare numerically, strings compare exactly, and any other mix of kinds
fails with a type mismatch error.

Entity and Schema:
An Entity carries its type name, a store-assigned ID, attribute values and
relationship references. A Schema fixes the attribute kinds and relationship
targets of one entity type and type-checks assignments:

	schema := &storagemodels.Schema{
	    Name: "Pokemon",
	    Attributes: []storagemodels.AttributeDef{
	        {Name: "name", Kind: storagemodels.KindString},
	        {Name: "level", Kind: storagemodels.KindInt},
	    },
	    Relationships: []storagemodels.RelationshipDef{
	        {Name: "type", Target: "Type"},
	    },
	}

ScanOptions:
Paging and retry configuration for backends that scan in pages:

	opts := []ScanOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
