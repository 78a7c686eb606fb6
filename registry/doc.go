/*
Package registry manages entity schemas and storage key layouts.

Schema Registry:
Maps entity type names to their schemas. Stores consult it to type-check
inserts and updates, and the query core consults it to resolve field paths:

	schemas := registry.New()
	schemas.MustRegister(&storagemodels.Schema{
	    Name: "Type",
	    Attributes: []storagemodels.AttributeDef{
	        {Name: "name", Kind: storagemodels.KindString},
	    },
	})

Schemas can also be loaded from YAML documents with LoadYAML or LoadFile.

Index Map Registry:
Associates entity types with DynamoDB key patterns:

	registry.RegisterIndexMap("Pokemon", map[string]string{
	    "PK": "POKEMON",
	    "SK": "POKEMON#{ID}",
	})

Types without an index map use DefaultIndexMap.

The registries are thread-safe and should be populated during initialization.
*/
package registry
