/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/entityrecord/storagemodels"
)

// page is one result page of a Query or Scan call.
type page struct {
	items   []map[string]types.AttributeValue
	lastKey map[string]types.AttributeValue
}

// scanItems reads every item of an entity type with strongly consistent
// reads. A constant partition key is read with Query; otherwise the table is
// scanned with a filter on EntityType.
func (d *DataStore) scanItems(ctx context.Context, entityType string) ([]map[string]types.AttributeValue, error) {
	options := d.scanOpts
	progress := storagemodels.ScanProgress{EntityType: entityType, StartTime: time.Now()}

	fetch := d.scanPage(entityType)
	if pk, ok := partitionFor(entityType); ok {
		fetch = d.queryPage(pk)
	}

	var items []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue
	for {
		out, retries, err := withRetry(ctx, options, func() (page, error) {
			return fetch(ctx, lastEvaluatedKey)
		})
		progress.Retries += retries
		if err != nil {
			return nil, err
		}

		items = append(items, out.items...)
		progress.PagesProcessed++
		progress.ItemsProcessed += int64(len(out.items))
		if options.ProgressHandler != nil {
			options.ProgressHandler(progress)
		}

		if len(out.lastKey) == 0 {
			break
		}
		lastEvaluatedKey = out.lastKey
	}

	d.logger.Debug("scanned entity type", "entityType", entityType,
		"items", progress.ItemsProcessed, "pages", progress.PagesProcessed, "retries", progress.Retries)
	return items, nil
}

func (d *DataStore) queryPage(pk string) func(context.Context, map[string]types.AttributeValue) (page, error) {
	return func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error) {
		out, err := d.client.Query(ctx, &sdk.QueryInput{
			TableName:              &d.tableName,
			KeyConditionExpression: aws.String("PK = :pkVal"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pkVal": &types.AttributeValueMemberS{Value: pk},
			},
			ConsistentRead:    aws.Bool(true),
			Limit:             aws.Int32(d.scanOpts.PageSize),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return page{}, err
		}
		return page{items: out.Items, lastKey: out.LastEvaluatedKey}, nil
	}
}

func (d *DataStore) scanPage(entityType string) func(context.Context, map[string]types.AttributeValue) (page, error) {
	return func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error) {
		out, err := d.client.Scan(ctx, &sdk.ScanInput{
			TableName:        &d.tableName,
			FilterExpression: aws.String("EntityType = :entityType"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":entityType": &types.AttributeValueMemberS{Value: entityType},
			},
			ConsistentRead:    aws.Bool(true),
			Limit:             aws.Int32(d.scanOpts.PageSize),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return page{}, err
		}
		return page{items: out.Items, lastKey: out.LastEvaluatedKey}, nil
	}
}

// withRetry runs call, retrying transient DynamoDB errors with linear backoff.
// It returns how many retries were needed.
func withRetry[T any](ctx context.Context, options storagemodels.ScanOptions, call func() (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		default:
		}

		out, err := call()
		if err == nil {
			return out, attempt, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return zero, attempt, err
		}

		// Don't sleep after last attempt
		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return zero, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return zero, options.MaxRetries, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	// Check for AWS SDK retryable errors
	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}

	return false
}
