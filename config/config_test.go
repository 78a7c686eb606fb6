/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityrecord/datastore/ddb"
	"github.com/suparena/entityrecord/datastore/mock"
	"github.com/suparena/entityrecord/datastore/sqlite"
	"github.com/suparena/entityrecord/datastore/testmodels"
	"github.com/suparena/entityrecord/query"
	"github.com/suparena/entityrecord/storagemodels"
)

const testPrefix = "ERTEST_"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(testPrefix, "")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "entityrecord.db", cfg.SQLite.Path)
	assert.Equal(t, 0, cfg.Dispatch.PoolSize)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "records.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
backend: dynamodb
log:
  level: debug
dynamo:
  table: from-file
  region: eu-west-1
dispatch:
  poolsize: 4
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ERTEST_DYNAMO_ENDPOINT=http://localhost:8000\n"), 0o600))
	t.Setenv("ERTEST_DYNAMO_TABLE", "from-env")
	t.Cleanup(func() { os.Unsetenv("ERTEST_DYNAMO_ENDPOINT") })

	cfg, err := Load(testPrefix, file)
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Dynamo.Table)
	assert.Equal(t, "eu-west-1", cfg.Dynamo.Region)
	assert.Equal(t, "http://localhost:8000", cfg.Dynamo.Endpoint)
	assert.Equal(t, 4, cfg.Dispatch.PoolSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Backend: BackendMemory}, false},
		{"dynamo without table", Config{Backend: BackendDynamoDB}, true},
		{"dynamo with table", Config{Backend: BackendDynamoDB, Dynamo: DynamoConfig{Table: "t"}}, false},
		{"sqlite without path", Config{Backend: BackendSQLite}, true},
		{"unknown backend", Config{Backend: "redis"}, true},
		{"negative pool", Config{Backend: BackendMemory, Dispatch: DispatchConfig{PoolSize: -1}}, true},
		{"bad level", Config{Backend: BackendMemory, Log: LogConfig{Level: "loud"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemas(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(file, testmodels.SchemaYAML, 0o600))

	schemas, err := (&Config{Schema: SchemaConfig{File: file}}).Schemas()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pokemon", "Type"}, schemas.Names())

	_, err = (&Config{Schema: SchemaConfig{File: filepath.Join(t.TempDir(), "missing.yaml")}}).Schemas()
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	schemas := testmodels.Schemas()

	t.Run("memory", func(t *testing.T) {
		store, closeFn, err := OpenStore(ctx, &Config{Backend: BackendMemory}, schemas, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &mock.DataStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &Config{Backend: BackendSQLite, SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "r.db")}}
		store, closeFn, err := OpenStore(ctx, cfg, schemas, cfg.Logger())
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &sqlite.DataStore{}, store)

		_, err = testmodels.Seed(ctx, store)
		require.NoError(t, err)
		n, err := query.NewExecutor(store).Count(ctx, "Pokemon", query.Gt("level", storagemodels.IntValue(5)))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("dynamodb", func(t *testing.T) {
		cfg := &Config{Backend: BackendDynamoDB, Dynamo: DynamoConfig{
			Region: "us-east-1", AccessKey: "key", SecretKey: "secret", Table: "records",
			Endpoint: "http://localhost:8000",
		}}
		store, closeFn, err := OpenStore(ctx, cfg, schemas, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &ddb.DataStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, closeFn, err := OpenStore(ctx, &Config{Backend: "redis"}, schemas, nil)
		assert.Error(t, err)
		assert.NotNil(t, closeFn)
	})
}
