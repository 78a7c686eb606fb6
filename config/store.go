/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"fmt"

	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/datastore/ddb"
	"github.com/suparena/entityrecord/datastore/mock"
	"github.com/suparena/entityrecord/datastore/sqlite"
	"github.com/suparena/entityrecord/logging"
	"github.com/suparena/entityrecord/registry"
)

// Schemas returns a registry holding the schema file named by the
// configuration, or an empty registry when none is set.
func (c *Config) Schemas() (*registry.SchemaRegistry, error) {
	schemas := registry.New()
	if c.Schema.File == "" {
		return schemas, nil
	}
	if err := schemas.LoadFile(c.Schema.File); err != nil {
		return nil, fmt.Errorf("failed to load schema file: %w", err)
	}
	return schemas, nil
}

// OpenStore opens the configured backend over schemas. The returned close
// function releases backend resources and is never nil.
func OpenStore(ctx context.Context, c *Config, schemas *registry.SchemaRegistry, logger logging.Logger) (datastore.EntityStore, func() error, error) {
	noop := func() error { return nil }
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	switch c.Backend {
	case BackendMemory:
		return mock.New(schemas), noop, nil
	case BackendDynamoDB:
		store, err := ddb.NewDynamodbDataStore(ctx, ddb.ClientConfig{
			Region:    c.Dynamo.Region,
			AccessKey: c.Dynamo.AccessKey,
			SecretKey: c.Dynamo.SecretKey,
			Endpoint:  c.Dynamo.Endpoint,
		}, c.Dynamo.Table, schemas, ddb.WithLogger(logger))
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case BackendSQLite:
		store, err := sqlite.Open(c.SQLite.Path, schemas, sqlite.WithLogger(logger))
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown backend %q", c.Backend)
}
