/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory single table understanding the key and
// condition expressions the store issues.
type fakeClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	order    []string
	throttle int
	calls    map[string]int
	// failTransact makes the n-th TransactWriteItems call fail.
	failTransact int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		items: make(map[string]map[string]types.AttributeValue),
		calls: make(map[string]int),
	}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func keyOf(item map[string]types.AttributeValue) string {
	return str(item["PK"]) + "|" + str(item["SK"])
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeClient) checkCondition(cond *string, key string) error {
	if cond == nil {
		return nil
	}
	_, exists := f.items[key]
	switch *cond {
	case condExists:
		if !exists {
			return conditionFailed()
		}
	case condNotExists:
		if exists {
			return conditionFailed()
		}
	}
	return nil
}

func (f *fakeClient) store(item map[string]types.AttributeValue) {
	key := keyOf(item)
	if _, exists := f.items[key]; !exists {
		f.order = append(f.order, key)
	}
	f.items[key] = item
}

func (f *fakeClient) throttled(op string) error {
	f.calls[op]++
	if f.throttle > 0 {
		f.throttle--
		return &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	}
	return nil
}

func (f *fakeClient) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetItem"]++
	return &sdk.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PutItem"]++
	if err := f.checkCondition(in.ConditionExpression, keyOf(in.Item)); err != nil {
		return nil, err
	}
	f.store(in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteItem"]++
	key := keyOf(in.Key)
	if err := f.checkCondition(in.ConditionExpression, key); err != nil {
		return nil, err
	}
	delete(f.items, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return &sdk.DeleteItemOutput{}, nil
}

// pageFrom returns up to limit keys following startKey.
func pageFrom(keys []string, startKey map[string]types.AttributeValue, limit *int32) []string {
	start := 0
	if len(startKey) > 0 {
		after := keyOf(startKey)
		for i, k := range keys {
			if k == after {
				start = i + 1
				break
			}
		}
	}
	end := len(keys)
	if limit != nil && start+int(*limit) < end {
		end = start + int(*limit)
	}
	return keys[start:end]
}

func (f *fakeClient) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.throttled("Query"); err != nil {
		return nil, err
	}

	pk := str(in.ExpressionAttributeValues[":pkVal"])
	var keys []string
	for _, k := range f.order {
		if str(f.items[k]["PK"]) == pk {
			keys = append(keys, k)
		}
	}
	// Query returns items in sort key order.
	sort.Slice(keys, func(i, j int) bool { return str(f.items[keys[i]]["SK"]) < str(f.items[keys[j]]["SK"]) })

	selected := pageFrom(keys, in.ExclusiveStartKey, in.Limit)
	out := &sdk.QueryOutput{}
	for _, k := range selected {
		out.Items = append(out.Items, f.items[k])
	}
	if len(selected) > 0 && selected[len(selected)-1] != keys[len(keys)-1] {
		last := f.items[selected[len(selected)-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.throttled("Scan"); err != nil {
		return nil, err
	}

	// Limit applies before the filter, as in DynamoDB.
	keys := append([]string(nil), f.order...)
	selected := pageFrom(keys, in.ExclusiveStartKey, in.Limit)
	want := str(in.ExpressionAttributeValues[":entityType"])
	out := &sdk.ScanOutput{}
	for _, k := range selected {
		if str(f.items[k]["EntityType"]) == want {
			out.Items = append(out.Items, f.items[k])
		}
	}
	if len(selected) > 0 && selected[len(selected)-1] != keys[len(keys)-1] {
		last := f.items[selected[len(selected)-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

func (f *fakeClient) TransactWriteItems(ctx context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["TransactWriteItems"]++
	if f.failTransact > 0 && f.calls["TransactWriteItems"] == f.failTransact {
		return nil, &types.InternalServerError{Message: aws.String("transaction failed")}
	}
	for _, w := range in.TransactItems {
		if err := f.checkCondition(w.Put.ConditionExpression, keyOf(w.Put.Item)); err != nil {
			return nil, &types.TransactionCanceledException{Message: aws.String("Transaction cancelled")}
		}
	}
	for _, w := range in.TransactItems {
		f.store(w.Put.Item)
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

func (f *fakeClient) remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}
