/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package sqlite stores entities in a single SQLite table using the pure Go
modernc.org/sqlite driver.

	store, err := sqlite.Open("records.db", schemas)
	if err != nil {
		return err
	}
	defer store.Close()

	x := query.NewExecutor(store)

Insert, Remove and BulkUpdate validate against committed data and queue their
writes. Commit applies the queue inside one transaction, so a failed commit
leaves the database unchanged. Scan and relationship resolution read only
committed rows.
*/
package sqlite
