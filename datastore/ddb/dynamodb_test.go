/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"
)

// fakeDynamoClient is a scriptable test double for the DynamoDB client.
type fakeDynamoClient struct {
	getItem            func(*sdk.GetItemInput) (*sdk.GetItemOutput, error)
	putItem            func(*sdk.PutItemInput) (*sdk.PutItemOutput, error)
	updateItem         func(*sdk.UpdateItemInput) (*sdk.UpdateItemOutput, error)
	deleteItem         func(*sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error)
	query              func(*sdk.QueryInput) (*sdk.QueryOutput, error)
	transactWriteItems func(*sdk.TransactWriteItemsInput) (*sdk.TransactWriteItemsOutput, error)
}

func (f *fakeDynamoClient) GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	return f.getItem(params)
}

func (f *fakeDynamoClient) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	return f.putItem(params)
}

func (f *fakeDynamoClient) UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	return f.updateItem(params)
}

func (f *fakeDynamoClient) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	return f.deleteItem(params)
}

func (f *fakeDynamoClient) Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	return f.query(params)
}

func (f *fakeDynamoClient) TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	return f.transactWriteItems(params)
}

func newTestStore(client *fakeDynamoClient) *RecordStore {
	return NewRecordStore(client, "inventory-test", zerolog.Nop())
}

func testRecord(partitionKey, id, version string) *storagemodels.Record {
	return &storagemodels.Record{
		ID:           id,
		PartitionKey: partitionKey,
		Name:         "Item " + id,
		SKU:          "SKU-" + strings.ToUpper(id),
		Price:        10,
		Quantity:     2,
		Status:       storagemodels.StatusActive,
		VersionTag:   version,
	}
}

func TestRecordKey(t *testing.T) {
	newTestStore(&fakeDynamoClient{}) // ensures the index map is registered

	key, err := recordKey("  Electronics  ", "id-1")
	if err != nil {
		t.Fatalf("recordKey failed: %v", err)
	}

	pk, ok := key["PK"].(*types.AttributeValueMemberS)
	if !ok || pk.Value != "INV#electronics" {
		t.Errorf("Unexpected PK attribute: %#v", key["PK"])
	}
	sk, ok := key["SK"].(*types.AttributeValueMemberS)
	if !ok || sk.Value != "REC#id-1" {
		t.Errorf("Unexpected SK attribute: %#v", key["SK"])
	}
}

func TestRecordItem(t *testing.T) {
	newTestStore(&fakeDynamoClient{})

	av, err := recordItem(testRecord("electronics", "id-1", "v1"))
	if err != nil {
		t.Fatalf("recordItem failed: %v", err)
	}

	for attr, expected := range map[string]string{
		"PK":         "INV#electronics",
		"SK":         "REC#id-1",
		"EntityType": "Record",
	} {
		v, ok := av[attr].(*types.AttributeValueMemberS)
		if !ok || v.Value != expected {
			t.Errorf("Attribute %q: expected %q, got %#v", attr, expected, av[attr])
		}
	}
	if _, ok := av["Name"]; !ok {
		t.Error("Marshaled item should carry the record fields")
	}
}

func TestBuildPatchExpression(t *testing.T) {
	name := "Renamed"
	qty := 7
	expr, names, values, err := buildPatchExpression(&storagemodels.RecordPatch{Name: &name, Quantity: &qty}, "v2")
	if err != nil {
		t.Fatalf("buildPatchExpression failed: %v", err)
	}

	if !strings.HasPrefix(expr, "SET ") {
		t.Errorf("Expression should start with SET, got %q", expr)
	}
	if !strings.Contains(expr, "VersionTag = :newVersion") || !strings.Contains(expr, "UpdatedAt = :updatedAt") {
		t.Errorf("Expression should always rewrite the version tag and timestamp, got %q", expr)
	}

	// Both patch fields resolve through placeholders
	patched := make(map[string]bool)
	for _, field := range names {
		patched[field] = true
	}
	if !patched["Name"] || !patched["Quantity"] {
		t.Errorf("Expected Name and Quantity placeholders, got %v", names)
	}

	nv, ok := values[":newVersion"].(*types.AttributeValueMemberS)
	if !ok || nv.Value != "v2" {
		t.Errorf("Unexpected :newVersion value: %#v", values[":newVersion"])
	}
	if _, ok := values[":updatedAt"]; !ok {
		t.Error("Expected an :updatedAt value")
	}
}

func TestCreateRecordAlreadyExists(t *testing.T) {
	var captured *sdk.PutItemInput
	store := newTestStore(&fakeDynamoClient{
		putItem: func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
			captured = in
			return nil, &types.ConditionalCheckFailedException{}
		},
	})

	_, err := store.CreateRecord(context.Background(), &storagemodels.RecordInput{
		PartitionKey: "electronics",
		Name:         "Wireless Mouse",
		SKU:          "WM-2024",
		Price:        29.99,
		Quantity:     1,
	})
	if !errors.IsAlreadyExists(err) {
		t.Fatalf("Expected already-exists, got %v", err)
	}

	if captured == nil || captured.ConditionExpression == nil ||
		!strings.Contains(*captured.ConditionExpression, "attribute_not_exists(PK)") {
		t.Errorf("Create must guard against overwriting: %+v", captured)
	}
}

func TestGetRecord(t *testing.T) {
	rec := testRecord("electronics", "id-1", "v1")
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("MarshalMap failed: %v", err)
	}

	store := newTestStore(&fakeDynamoClient{
		getItem: func(in *sdk.GetItemInput) (*sdk.GetItemOutput, error) {
			return &sdk.GetItemOutput{Item: item}, nil
		},
	})

	got, err := store.GetRecord(context.Background(), "electronics", "id-1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.ID != "id-1" || got.VersionTag != "v1" || got.Name != rec.Name {
		t.Errorf("Unexpected record: %+v", got)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	store := newTestStore(&fakeDynamoClient{
		getItem: func(in *sdk.GetItemInput) (*sdk.GetItemOutput, error) {
			return &sdk.GetItemOutput{}, nil
		},
	})

	_, err := store.GetRecord(context.Background(), "electronics", "missing")
	if !errors.IsNotFound(err) {
		t.Fatalf("Expected not-found, got %v", err)
	}
}

func TestPatchRecordConditionFailures(t *testing.T) {
	name := "Renamed"
	patch := &storagemodels.RecordPatch{Name: &name}

	t.Run("missing record", func(t *testing.T) {
		store := newTestStore(&fakeDynamoClient{
			updateItem: func(in *sdk.UpdateItemInput) (*sdk.UpdateItemOutput, error) {
				// No old item on the failed check: the record does not exist
				return nil, &types.ConditionalCheckFailedException{}
			},
		})
		_, err := store.PatchRecord(context.Background(), "electronics", "id-1", "v1", patch)
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not-found, got %v", err)
		}
	})

	t.Run("stale version", func(t *testing.T) {
		store := newTestStore(&fakeDynamoClient{
			updateItem: func(in *sdk.UpdateItemInput) (*sdk.UpdateItemOutput, error) {
				old, _ := attributevalue.MarshalMap(testRecord("electronics", "id-1", "v2"))
				return nil, &types.ConditionalCheckFailedException{Item: old}
			},
		})
		_, err := store.PatchRecord(context.Background(), "electronics", "id-1", "v1", patch)
		if !errors.IsPreconditionFailed(err) {
			t.Fatalf("Expected precondition-failed, got %v", err)
		}
	})
}

func TestPatchRecordReturnsUpdated(t *testing.T) {
	name := "Renamed"
	store := newTestStore(&fakeDynamoClient{
		updateItem: func(in *sdk.UpdateItemInput) (*sdk.UpdateItemOutput, error) {
			updated := testRecord("electronics", "id-1", "v2")
			updated.Name = name
			av, _ := attributevalue.MarshalMap(updated)
			return &sdk.UpdateItemOutput{Attributes: av}, nil
		},
	})

	got, err := store.PatchRecord(context.Background(), "electronics", "id-1", "v1", &storagemodels.RecordPatch{Name: &name})
	if err != nil {
		t.Fatalf("PatchRecord failed: %v", err)
	}
	if got.Name != name || got.VersionTag != "v2" {
		t.Errorf("Unexpected record: %+v", got)
	}
}

func TestDeleteRecordNotFound(t *testing.T) {
	store := newTestStore(&fakeDynamoClient{
		deleteItem: func(in *sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	})

	err := store.DeleteRecord(context.Background(), "electronics", "missing")
	if !errors.IsNotFound(err) {
		t.Fatalf("Expected not-found, got %v", err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	throttle := &types.ProvisionedThroughputExceededException{}
	if !errors.IsThrottled(classifyAPIError("get", "electronics", throttle)) {
		t.Error("Throughput exhaustion should classify as throttled")
	}

	if !errors.IsUnavailable(classifyAPIError("get", "electronics", &types.InternalServerError{})) {
		t.Error("Unknown API errors should classify as unavailable")
	}

	if classifyAPIError("get", "electronics", context.Canceled) != context.Canceled {
		t.Error("Context errors should pass through unchanged")
	}
}

func TestPageTokenRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "INV#electronics"},
		"SK": &types.AttributeValueMemberS{Value: "REC#id-5"},
	}

	token, err := encodePageToken(key)
	if err != nil {
		t.Fatalf("encodePageToken failed: %v", err)
	}
	if token == "" || strings.ContainsAny(token, "+/=") {
		t.Errorf("Token should be URL-safe and non-empty, got %q", token)
	}

	decoded, err := decodePageToken(token)
	if err != nil {
		t.Fatalf("decodePageToken failed: %v", err)
	}
	for name, attr := range key {
		got, ok := decoded[name].(*types.AttributeValueMemberS)
		want := attr.(*types.AttributeValueMemberS)
		if !ok || got.Value != want.Value {
			t.Errorf("Attribute %q: expected %q, got %#v", name, want.Value, decoded[name])
		}
	}
}

func TestDecodePageTokenMalformed(t *testing.T) {
	for _, token := range []string{"???", "bm90LWpzb24"} {
		if _, err := decodePageToken(token); !errors.IsValidationError(err) {
			t.Errorf("Token %q: expected a validation error, got %v", token, err)
		}
	}
}

func TestListByPartition(t *testing.T) {
	recItem, err := attributevalue.MarshalMap(testRecord("electronics", "id-1", "v1"))
	if err != nil {
		t.Fatalf("MarshalMap failed: %v", err)
	}
	recItem["EntityType"] = &types.AttributeValueMemberS{Value: "Record"}

	foreign := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: "INV#electronics"},
		"SK":         &types.AttributeValueMemberS{Value: "AUDIT#1"},
		"EntityType": &types.AttributeValueMemberS{Value: "AuditEvent"},
	}
	untyped := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "INV#electronics"},
		"SK": &types.AttributeValueMemberS{Value: "LEGACY#1"},
	}

	var captured *sdk.QueryInput
	store := newTestStore(&fakeDynamoClient{
		query: func(in *sdk.QueryInput) (*sdk.QueryOutput, error) {
			captured = in
			return &sdk.QueryOutput{
				Items: []map[string]types.AttributeValue{recItem, foreign, untyped},
				LastEvaluatedKey: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: "INV#electronics"},
					"SK": &types.AttributeValueMemberS{Value: "REC#id-1"},
				},
			}, nil
		},
	})

	page, err := store.ListByPartition(context.Background(), &storagemodels.ListParams{
		PartitionKey: "Electronics",
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("ListByPartition failed: %v", err)
	}

	// Only the record entity survives; foreign and untyped items are skipped
	if len(page.Items) != 1 || page.Items[0].ID != "id-1" {
		t.Fatalf("Unexpected page items: %+v", page.Items)
	}
	if page.NextToken == "" {
		t.Error("Expected a continuation token")
	}

	pkVal, ok := captured.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	if !ok || pkVal.Value != "INV#electronics" {
		t.Errorf("Query should target the normalized partition attribute: %#v", captured.ExpressionAttributeValues)
	}
	if captured.Limit == nil || *captured.Limit != 10 {
		t.Errorf("Query should carry the page limit, got %v", captured.Limit)
	}

	// Feeding the token back resumes from the evaluated key
	_, err = store.ListByPartition(context.Background(), &storagemodels.ListParams{
		PartitionKey: "electronics",
		StartToken:   page.NextToken,
	})
	if err != nil {
		t.Fatalf("ListByPartition with token failed: %v", err)
	}
	if captured.ExclusiveStartKey == nil {
		t.Error("Continuation token should become the exclusive start key")
	}
}

func TestListByPartitionRejectsEmptyKey(t *testing.T) {
	store := newTestStore(&fakeDynamoClient{})
	_, err := store.ListByPartition(context.Background(), &storagemodels.ListParams{PartitionKey: "   "})
	if !errors.IsValidationError(err) {
		t.Fatalf("Expected a validation error, got %v", err)
	}
}

func TestUnsupportedPageTokenAttribute(t *testing.T) {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberN{Value: "42"},
	}
	if _, err := encodePageToken(key); err == nil {
		t.Fatal("Non-string key attributes should be rejected")
	}
}

var _ DynamoClient = (*fakeDynamoClient)(nil)
