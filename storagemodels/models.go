/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/inventorystore/errors"
)

// RecordStatus enumerates the lifecycle states of an inventory record.
type RecordStatus string

const (
	// StatusActive marks a record as available
	StatusActive RecordStatus = "active"
	// StatusInactive marks a record as unavailable (discontinued, seasonal, etc.)
	StatusInactive RecordStatus = "inactive"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

const (
	maxNameLength        = 255
	maxDescriptionLength = 1000
	maxPartitionKeyLen   = 100
	maxSKULength         = 50
)

// Record is a stored inventory record. ID and PartitionKey are immutable
// after creation; VersionTag changes on every write and serves as the
// optimistic-concurrency token on updates and deletes.
type Record struct {
	ID           string           `json:"id" dynamodbav:"ID"`
	PartitionKey string           `json:"partitionKey" dynamodbav:"PartitionKey"`
	Name         string           `json:"name" dynamodbav:"Name"`
	Description  string           `json:"description,omitempty" dynamodbav:"Description,omitempty"`
	SKU          string           `json:"sku" dynamodbav:"SKU"`
	Price        float64          `json:"price" dynamodbav:"Price"`
	Quantity     int              `json:"quantity" dynamodbav:"Quantity"`
	Status       RecordStatus     `json:"status" dynamodbav:"Status"`
	VersionTag   string           `json:"versionTag" dynamodbav:"VersionTag"`
	CreatedAt    *strfmt.DateTime `json:"createdAt,omitempty" dynamodbav:"CreatedAt,omitempty"`
	UpdatedAt    *strfmt.DateTime `json:"updatedAt,omitempty" dynamodbav:"UpdatedAt,omitempty"`
}

// RecordInput carries the caller-supplied fields for a create. The store
// assigns VersionTag, Status (active) and timestamps, and mints an ID when
// the caller leaves it empty.
type RecordInput struct {
	ID           string  `json:"id,omitempty" yaml:"id,omitempty"`
	PartitionKey string  `json:"partitionKey" yaml:"partitionKey"`
	Name         string  `json:"name" yaml:"name"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	SKU          string  `json:"sku" yaml:"sku"`
	Price        float64 `json:"price" yaml:"price"`
	Quantity     int     `json:"quantity" yaml:"quantity"`
}

// Validate checks the input against the record constraints and returns a
// typed validation error for the first violation found.
func (in *RecordInput) Validate() error {
	if strings.TrimSpace(in.PartitionKey) == "" {
		return errors.NewValidationError("partitionKey", "must not be empty")
	}
	if len(in.PartitionKey) > maxPartitionKeyLen {
		return errors.NewValidationError("partitionKey", "too long")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.NewValidationError("name", "must not be empty")
	}
	if len(in.Name) > maxNameLength {
		return errors.NewValidationError("name", "too long")
	}
	if len(in.Description) > maxDescriptionLength {
		return errors.NewValidationError("description", "too long")
	}
	if in.SKU == "" || len(in.SKU) > maxSKULength || !skuPattern.MatchString(in.SKU) {
		return errors.NewValidationError("sku", "must match ^[A-Z0-9-]+$")
	}
	if in.Price <= 0 {
		return errors.NewValidationError("price", "must be greater than zero")
	}
	if in.Quantity < 0 {
		return errors.NewValidationError("quantity", "must not be negative")
	}
	return nil
}

// NewRecord materializes a record from validated input: a fresh version tag,
// active status and creation timestamps, with the id minted unless supplied.
func NewRecord(in *RecordInput) *Record {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := strfmt.DateTime(time.Now().UTC())
	return &Record{
		ID:           id,
		PartitionKey: NormalizePartitionKey(in.PartitionKey),
		Name:         in.Name,
		Description:  in.Description,
		SKU:          in.SKU,
		Price:        in.Price,
		Quantity:     in.Quantity,
		Status:       StatusActive,
		VersionTag:   uuid.NewString(),
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
}

// RecordPatch is a partial update. Nil fields are left untouched; the patch
// never moves a record between partitions or rewrites its ID.
type RecordPatch struct {
	Name        *string       `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string       `json:"description,omitempty" yaml:"description,omitempty"`
	Price       *float64      `json:"price,omitempty" yaml:"price,omitempty"`
	Quantity    *int          `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Status      *RecordStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p *RecordPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Quantity == nil && p.Status == nil
}

// Validate checks the patch fields and requires at least one to be set.
func (p *RecordPatch) Validate() error {
	if p.IsEmpty() {
		return errors.NewValidationError("", "at least one update field must be provided")
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return errors.NewValidationError("name", "must not be empty")
		}
		if len(*p.Name) > maxNameLength {
			return errors.NewValidationError("name", "too long")
		}
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return errors.NewValidationError("description", "too long")
	}
	if p.Price != nil && *p.Price <= 0 {
		return errors.NewValidationError("price", "must be greater than zero")
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return errors.NewValidationError("quantity", "must not be negative")
	}
	if p.Status != nil && *p.Status != StatusActive && *p.Status != StatusInactive {
		return errors.NewValidationError("status", "must be active or inactive")
	}
	return nil
}

// Fields returns the patch as a field → value map, with nil entries omitted.
// Used by the store layer to build update expressions.
func (p *RecordPatch) Fields() map[string]interface{} {
	m := make(map[string]interface{})
	if p.Name != nil {
		m["Name"] = *p.Name
	}
	if p.Description != nil {
		m["Description"] = *p.Description
	}
	if p.Price != nil {
		m["Price"] = *p.Price
	}
	if p.Quantity != nil {
		m["Quantity"] = *p.Quantity
	}
	if p.Status != nil {
		m["Status"] = string(*p.Status)
	}
	return m
}

// NormalizePartitionKey canonicalizes a partition key so that equivalent
// spellings route to the same physical partition.
func NormalizePartitionKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ListParams defines parameters for a partition listing query.
type ListParams struct {
	// PartitionKey selects the partition to list.
	PartitionKey string
	// Limit caps the number of items per page; zero means store default.
	Limit int32
	// StartToken is the continuation token from a previous page, if any.
	StartToken string
}

// RecordPage is one page of a partition listing.
type RecordPage struct {
	Items []Record
	// NextToken continues the listing; empty when the partition is exhausted.
	NextToken string
}
