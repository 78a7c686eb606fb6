/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/logging"
	"github.com/suparena/entityrecord/registry"
	"github.com/suparena/entityrecord/storagemodels"
)

var (
	_ datastore.EntityStore = (*DataStore)(nil)
	_ datastore.BulkUpdater = (*DataStore)(nil)
)

// maxTransactItems is the DynamoDB limit of actions per transaction.
const maxTransactItems = 100

const (
	condExists    = "attribute_exists(PK)"
	condNotExists = "attribute_not_exists(PK)"
)

// DataStore implements datastore.EntityStore on a single DynamoDB table.
// Every write is applied immediately and every read is strongly consistent,
// so Commit has nothing left to do.
type DataStore struct {
	client    Client
	tableName string
	schemas   *registry.SchemaRegistry
	scanOpts  storagemodels.ScanOptions
	logger    logging.Logger
	lastSeq   atomic.Int64
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithScanOptions tunes paging and retries of Scan.
func WithScanOptions(opts ...storagemodels.ScanOption) Option {
	return func(d *DataStore) {
		for _, opt := range opts {
			opt(&d.scanOpts)
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(d *DataStore) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a DataStore over an existing client and table.
func New(client Client, tableName string, schemas *registry.SchemaRegistry, opts ...Option) *DataStore {
	d := &DataStore{
		client:    client,
		tableName: tableName,
		schemas:   schemas,
		scanOpts:  storagemodels.DefaultScanOptions(),
		logger:    logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDynamodbDataStore connects to DynamoDB and returns a DataStore for tableName.
func NewDynamodbDataStore(ctx context.Context, cc ClientConfig, tableName string, schemas *registry.SchemaRegistry, opts ...Option) (*DataStore, error) {
	client, err := NewDynamoDBClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	d := New(client, tableName, schemas, opts...)
	d.logger.Info("DynamoDB store initialized", "table", tableName, "region", cc.Region)
	return d, nil
}

// Schema returns the schema of an entity type.
func (d *DataStore) Schema(entityType string) (*storagemodels.Schema, error) {
	return d.schemas.Get(entityType)
}

// Scan returns every entity of a type in insertion order.
func (d *DataStore) Scan(ctx context.Context, entityType string) ([]*storagemodels.Entity, error) {
	schema, err := d.schemas.Get(entityType)
	if err != nil {
		return nil, err
	}
	items, err := d.scanItems(ctx, entityType)
	if err != nil {
		return nil, errors.NewStoreFailureError("scan", err)
	}

	type seqEntity struct {
		seq    int64
		entity *storagemodels.Entity
	}
	decoded := make([]seqEntity, 0, len(items))
	for _, item := range items {
		e, seq, err := decodeItem(schema, item)
		if err != nil {
			return nil, errors.NewStoreFailureError("scan", err)
		}
		decoded = append(decoded, seqEntity{seq: seq, entity: e})
	}
	sort.SliceStable(decoded, func(i, j int) bool { return decoded[i].seq < decoded[j].seq })

	out := make([]*storagemodels.Entity, len(decoded))
	for i, se := range decoded {
		out[i] = se.entity
	}
	return out, nil
}

// Insert writes a new entity with schema defaults overlaid by values.
func (d *DataStore) Insert(ctx context.Context, entityType string, values map[string]storagemodels.Value) (*storagemodels.Entity, error) {
	schema, err := d.schemas.Get(entityType)
	if err != nil {
		return nil, err
	}
	checked, err := schema.Apply(values)
	if err != nil {
		return nil, err
	}

	e := storagemodels.NewEntity(entityType, uuid.NewString())
	schema.Put(e, schema.Defaults())
	schema.Put(e, checked)

	if err := d.put(ctx, e, d.nextSeq(), condNotExists); err != nil {
		if errors.IsConditionFailed(err) {
			return nil, errors.NewAlreadyExistsError(entityType, e.ID)
		}
		return nil, errors.NewStoreFailureError("insert", err)
	}
	return e, nil
}

// Remove deletes an entity and drops the references other entities hold to it.
func (d *DataStore) Remove(ctx context.Context, ref storagemodels.EntityRef) error {
	key, err := d.key(ref)
	if err != nil {
		return errors.NewStoreFailureError("remove", err)
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:           &d.tableName,
		Key:                 key,
		ConditionExpression: aws.String(condExists),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewNotFoundError(ref.Type, ref.ID)
		}
		return errors.NewStoreFailureError("remove", fmt.Errorf("failed to delete item in DynamoDB: %w", err))
	}
	return d.nullify(ctx, ref)
}

// nullify unlinks ref from every stored relationship that targets its type.
func (d *DataStore) nullify(ctx context.Context, ref storagemodels.EntityRef) error {
	for _, name := range d.schemas.Names() {
		schema, err := d.schemas.Get(name)
		if err != nil {
			return err
		}
		holds := false
		for _, rel := range schema.Relationships {
			if rel.Target == ref.Type && rel.Inverse == "" {
				holds = true
				break
			}
		}
		if !holds {
			continue
		}

		items, err := d.scanItems(ctx, name)
		if err != nil {
			return errors.NewStoreFailureError("remove", err)
		}
		for _, item := range items {
			e, seq, err := decodeItem(schema, item)
			if err != nil {
				return errors.NewStoreFailureError("remove", err)
			}
			if !e.Unlink(ref) {
				continue
			}
			if err := d.put(ctx, e, seq, condExists); err != nil && !errors.IsConditionFailed(err) {
				return errors.NewStoreFailureError("remove", err)
			}
		}
	}
	return nil
}

// Update applies values to one entity.
func (d *DataStore) Update(ctx context.Context, ref storagemodels.EntityRef, values map[string]storagemodels.Value) error {
	_, err := d.BulkUpdate(ctx, ref.Type, []storagemodels.EntityRef{ref}, values)
	return err
}

// BulkUpdate rewrites every referenced entity in transactions of up to 100
// items. When a later transaction fails, the chunks already written are put
// back to their previous images so the batch is applied entirely or not at
// all.
func (d *DataStore) BulkUpdate(ctx context.Context, entityType string, refs []storagemodels.EntityRef, values map[string]storagemodels.Value) (int, error) {
	schema, err := d.schemas.Get(entityType)
	if err != nil {
		return 0, err
	}
	checked, err := schema.Apply(values)
	if err != nil {
		return 0, err
	}

	writes := make([]types.TransactWriteItem, 0, len(refs))
	restores := make([]types.TransactWriteItem, 0, len(refs))
	for _, ref := range refs {
		e, seq, err := d.get(ctx, schema, ref)
		if err != nil {
			return 0, err
		}
		before, err := d.encode(e, seq)
		if err != nil {
			return 0, errors.NewStoreFailureError("update", err)
		}
		schema.Put(e, checked)
		after, err := d.encode(e, seq)
		if err != nil {
			return 0, errors.NewStoreFailureError("update", err)
		}
		writes = append(writes, d.conditionalPut(after))
		restores = append(restores, d.conditionalPut(before))
	}

	for start := 0; start < len(writes); start += maxTransactItems {
		end := min(start+maxTransactItems, len(writes))
		if err := d.transact(ctx, writes[start:end]); err != nil {
			if start > 0 {
				d.logger.Warn("bulk update failed, restoring applied chunks",
					"entityType", entityType, "applied", start, "error", err)
				if rerr := d.restore(ctx, restores[:start]); rerr != nil {
					err = fmt.Errorf("%w; restore failed: %v", err, rerr)
				}
			}
			return 0, errors.NewStoreFailureError("update", err)
		}
	}
	return len(writes), nil
}

func (d *DataStore) conditionalPut(item map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           &d.tableName,
			Item:                item,
			ConditionExpression: aws.String(condExists),
		},
	}
}

func (d *DataStore) transact(ctx context.Context, items []types.TransactWriteItem) error {
	_, err := d.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("TransactWriteItems failed: %w", err)
	}
	return nil
}

// restore writes pre-images back chunk by chunk.
func (d *DataStore) restore(ctx context.Context, items []types.TransactWriteItem) error {
	for start := 0; start < len(items); start += maxTransactItems {
		end := min(start+maxTransactItems, len(items))
		if err := d.transact(ctx, items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ResolveRelationship loads the entities a relationship points to.
func (d *DataStore) ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error) {
	return datastore.ResolveWith(ctx, d, d.lookup, e, name)
}

func (d *DataStore) lookup(ctx context.Context, ref storagemodels.EntityRef) (*storagemodels.Entity, error) {
	schema, err := d.schemas.Get(ref.Type)
	if err != nil {
		return nil, err
	}
	e, _, err := d.get(ctx, schema, ref)
	return e, err
}

// Commit is a no-op: writes are visible to consistent reads once acknowledged.
func (d *DataStore) Commit(ctx context.Context) error {
	return nil
}

// Rollback is a no-op: acknowledged writes are durable. BulkUpdate restores
// its own partial writes before reporting a failure.
func (d *DataStore) Rollback(ctx context.Context) error {
	return nil
}

func (d *DataStore) get(ctx context.Context, schema *storagemodels.Schema, ref storagemodels.EntityRef) (*storagemodels.Entity, int64, error) {
	key, err := d.key(ref)
	if err != nil {
		return nil, 0, errors.NewStoreFailureError("get", err)
	}
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, 0, errors.NewStoreFailureError("get", fmt.Errorf("GetItem error: %w", err))
	}
	if out.Item == nil {
		return nil, 0, errors.NewNotFoundError(ref.Type, ref.ID)
	}
	e, seq, err := decodeItem(schema, out.Item)
	if err != nil {
		return nil, 0, errors.NewStoreFailureError("get", err)
	}
	return e, seq, nil
}

func (d *DataStore) put(ctx context.Context, e *storagemodels.Entity, seq int64, condition string) error {
	item, err := d.encode(e, seq)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: aws.String(condition),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewConditionFailedError("PutItem", condition)
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func (d *DataStore) encode(e *storagemodels.Entity, seq int64) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(registry.IndexMapFor(e.Type), e.Ref())
	if err != nil {
		return nil, err
	}
	return encodeItem(e, seq, expanded)
}

func (d *DataStore) key(ref storagemodels.EntityRef) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(registry.IndexMapFor(ref.Type), ref)
	if err != nil {
		return nil, err
	}
	return buildKeyFromExpanded(expanded)
}

// nextSeq returns a strictly increasing insertion sequence based on the clock.
func (d *DataStore) nextSeq() int64 {
	for {
		last := d.lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if d.lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}

// partitionFor reports the constant partition key of an entity type, if its
// PK template does not depend on the entity ID.
func partitionFor(entityType string) (string, bool) {
	pk, ok := registry.IndexMapFor(entityType)["PK"]
	if !ok || strings.Contains(pk, "{ID}") {
		return "", false
	}
	expanded, err := expandMacros(map[string]string{"PK": pk}, storagemodels.EntityRef{Type: entityType})
	if err != nil {
		return "", false
	}
	return expanded["PK"], true
}
