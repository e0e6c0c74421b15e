/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"testing"

	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"
)

func TestNewCreate(t *testing.T) {
	op, err := NewCreate(storagemodels.RecordInput{
		PartitionKey: "Electronics",
		Name:         "Wireless Mouse",
		SKU:          "WM-2024",
		Price:        29.99,
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("NewCreate failed: %v", err)
	}
	if op.Kind() != KindCreate {
		t.Errorf("Expected kind %q, got %q", KindCreate, op.Kind())
	}
	if op.PartitionKey() != "Electronics" {
		t.Errorf("Expected partition key to be kept verbatim, got %q", op.PartitionKey())
	}
	if op.ID() != "" {
		t.Errorf("Create operations should have no id, got %q", op.ID())
	}
}

func TestNewCreateRejectsInvalidInput(t *testing.T) {
	_, err := NewCreate(storagemodels.RecordInput{
		PartitionKey: "electronics",
		Name:         "Wireless Mouse",
		SKU:          "lowercase-sku",
		Price:        29.99,
	})
	if err == nil {
		t.Fatal("NewCreate should reject an invalid SKU")
	}
	if !errors.IsValidationError(err) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestNewUpdate(t *testing.T) {
	name := "Renamed"
	op, err := NewUpdate("electronics", "id-1", "v1", storagemodels.RecordPatch{Name: &name})
	if err != nil {
		t.Fatalf("NewUpdate failed: %v", err)
	}
	if op.Kind() != KindUpdate {
		t.Errorf("Expected kind %q, got %q", KindUpdate, op.Kind())
	}
	if op.ID() != "id-1" {
		t.Errorf("Expected id %q, got %q", "id-1", op.ID())
	}
}

func TestNewUpdateRejections(t *testing.T) {
	name := "Renamed"
	patch := storagemodels.RecordPatch{Name: &name}

	tests := []struct {
		name            string
		partitionKey    string
		id              string
		expectedVersion string
		patch           storagemodels.RecordPatch
	}{
		{"missing partition key", "", "id-1", "v1", patch},
		{"missing id", "electronics", "", "v1", patch},
		{"missing expected version", "electronics", "id-1", "", patch},
		{"empty patch", "electronics", "id-1", "v1", storagemodels.RecordPatch{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUpdate(tt.partitionKey, tt.id, tt.expectedVersion, tt.patch)
			if err == nil {
				t.Fatal("NewUpdate should have failed")
			}
			if !errors.IsValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestNewDelete(t *testing.T) {
	op, err := NewDelete("electronics", "id-1")
	if err != nil {
		t.Fatalf("NewDelete failed: %v", err)
	}
	if op.Kind() != KindDelete {
		t.Errorf("Expected kind %q, got %q", KindDelete, op.Kind())
	}

	if _, err := NewDelete("", "id-1"); err == nil {
		t.Error("NewDelete should reject an empty partition key")
	}
	if _, err := NewDelete("electronics", ""); err == nil {
		t.Error("NewDelete should reject an empty id")
	}
}

func TestOperationResultSucceeded(t *testing.T) {
	ok := OperationResult{InputIndex: 0, ID: "id-1"}
	if !ok.Succeeded() {
		t.Error("Result without an error kind should report success")
	}

	failed := failure(1, errors.KindNotFound, "gone")
	if failed.Succeeded() {
		t.Error("Result with an error kind should report failure")
	}
	if failed.InputIndex != 1 || failed.ErrorKind != errors.KindNotFound || failed.Message != "gone" {
		t.Errorf("Unexpected failure result: %+v", failed)
	}
}
