/*
Package ddb provides a DynamoDB implementation of datastore.EntityStore.

All entity types share one table. Each item carries the index keys expanded
from the type's index map, an ID/EntityType/Seq header, an Attrs map with the
attribute values and a Rels map with the stored relationship references.

Key Layout:
Index maps use the {EntityType} and {ID} macros. The default map keeps each
entity type in its own partition:

	indexMap := map[string]string{
	    "PK": "{EntityType}",       // Becomes "Pokemon"
	    "SK": "{EntityType}#{ID}",  // Becomes "Pokemon#9b2c..."
	}

A type whose PK does not depend on {ID} is read with a Query on its
partition; any other layout falls back to a filtered table Scan.

Scanning:
Reads are strongly consistent and page through the table with retry on
throttling:

	store := ddb.New(client, "records", schemas,
	    ddb.WithScanOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(3),
	        storagemodels.WithProgressHandler(func(p storagemodels.ScanProgress) {
	            log.Printf("Processed %d items", p.ItemsProcessed)
	        }),
	    ),
	)

Writes use conditional PutItem and DeleteItem so a missing entity is reported
as errors.ErrNotFound; bulk updates use TransactWriteItems.
*/
package ddb
