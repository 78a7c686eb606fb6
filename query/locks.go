/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"sync"

	"github.com/suparena/entityrecord/datastore"
)

var (
	storeLocksMu sync.Mutex
	storeLocks   = make(map[datastore.EntityStore]*sync.RWMutex)
)

// lockFor returns the confinement lock of store, creating it on first use.
// Stores are keyed by identity, so store must have a comparable dynamic
// type; every store in this module is a pointer.
func lockFor(store datastore.EntityStore) *sync.RWMutex {
	storeLocksMu.Lock()
	defer storeLocksMu.Unlock()

	mu, ok := storeLocks[store]
	if !ok {
		mu = &sync.RWMutex{}
		storeLocks[store] = mu
	}
	return mu
}
