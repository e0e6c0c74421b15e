//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package inventorystore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/inventorystore"
	"github.com/suparena/inventorystore/batch"
	"github.com/suparena/inventorystore/config"
	"github.com/suparena/inventorystore/datastore/ddb"
	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"
)

func setupIntegrationClient(t *testing.T) *inventorystore.Client {
	t.Helper()

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	region := os.Getenv("AWS_REGION")
	tableName := os.Getenv("DDB_TEST_TABLE_NAME")

	if tableName == "" {
		t.Skip("DDB_TEST_TABLE_NAME not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := ddb.NewClient(ctx, accessKey, secretKey, region)
	if err != nil {
		t.Fatalf("Failed to create DynamoDB client: %v", err)
	}
	store := ddb.NewRecordStore(client, tableName, zerolog.Nop())
	return inventorystore.NewWithStore(store, config.Default(), zerolog.Nop())
}

func TestIntegrationRecordLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := setupIntegrationClient(t)
	partition := fmt.Sprintf("it-%d", time.Now().Unix())

	created, err := client.CreateRecord(ctx, &storagemodels.RecordInput{
		PartitionKey: partition,
		Name:         "Integration Widget",
		SKU:          "IT-WIDGET-1",
		Price:        19.95,
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}
	defer client.DeleteRecord(ctx, partition, created.ID)

	got, err := client.GetRecord(ctx, partition, created.ID)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.Name != created.Name || got.VersionTag != created.VersionTag {
		t.Errorf("Retrieved record doesn't match: got %+v, want %+v", got, created)
	}

	qty := 7
	patched, err := client.PatchRecord(ctx, partition, created.ID, created.VersionTag,
		&storagemodels.RecordPatch{Quantity: &qty})
	if err != nil {
		t.Fatalf("Failed to patch record: %v", err)
	}
	if patched.Quantity != 7 || patched.VersionTag == created.VersionTag {
		t.Errorf("Patch did not apply cleanly: %+v", patched)
	}

	// Stale tag loses
	if _, err := client.PatchRecord(ctx, partition, created.ID, created.VersionTag,
		&storagemodels.RecordPatch{Quantity: &qty}); !errors.IsPreconditionFailed(err) {
		t.Errorf("Expected precondition-failed for stale tag, got %v", err)
	}

	if err := client.DeleteRecord(ctx, partition, created.ID); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}
	if _, err := client.GetRecord(ctx, partition, created.ID); !errors.IsNotFound(err) {
		t.Errorf("Expected not-found after delete, got %v", err)
	}
}

func TestIntegrationBatchAndListing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := setupIntegrationClient(t)
	partition := fmt.Sprintf("it-batch-%d", time.Now().Unix())

	ops := make([]batch.Operation, 0, 5)
	for i := 0; i < 5; i++ {
		op, err := batch.NewCreate(storagemodels.RecordInput{
			PartitionKey: partition,
			Name:         fmt.Sprintf("Batch Item %d", i),
			SKU:          fmt.Sprintf("IT-BATCH-%d", i),
			Price:        1.50,
			Quantity:     i,
		})
		if err != nil {
			t.Fatalf("Failed to build create op: %v", err)
		}
		ops = append(ops, op)
	}

	res, err := client.ExecuteBatch(ctx, batch.KindCreate, ops)
	if err != nil {
		t.Fatalf("Failed to execute batch: %v", err)
	}
	if res.Summary.Succeeded != 5 {
		t.Fatalf("Expected 5 successes, got %+v", res.Summary)
	}

	defer func() {
		for _, item := range res.Items {
			if item.Record != nil {
				client.DeleteRecord(ctx, partition, item.Record.ID)
			}
		}
	}()

	page, err := client.ListByPartition(ctx, &storagemodels.ListParams{PartitionKey: partition})
	if err != nil {
		t.Fatalf("Failed to list partition: %v", err)
	}
	if len(page.Items) != 5 {
		t.Errorf("Expected 5 listed records, got %d", len(page.Items))
	}
}
