/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package inventorystore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suparena/inventorystore/batch"
	"github.com/suparena/inventorystore/config"
	"github.com/suparena/inventorystore/datastore"
	"github.com/suparena/inventorystore/datastore/ddb"
	"github.com/suparena/inventorystore/storagemodels"
)

// Client bundles a record store with a batch engine behind one handle. It
// holds no per-request state; one Client is safe for concurrent use.
type Client struct {
	store  datastore.RecordStore
	engine *batch.Engine
	log    zerolog.Logger
}

// New connects to DynamoDB per the configuration and wires the batch engine
// on top of it.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.AWS.Table == "" {
		return nil, fmt.Errorf("no table configured")
	}
	log := config.NewLogger(cfg.Logging.Level)

	ddbClient, err := ddb.NewClient(ctx, cfg.AWS.AccessKey, cfg.AWS.SecretKey, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create store client: %w", err)
	}
	store := ddb.NewRecordStore(ddbClient, cfg.AWS.Table, log)
	return NewWithStore(store, cfg, log), nil
}

// NewWithStore wires the batch engine over an existing store handle. Used
// directly by tests and by callers that manage their own store client.
func NewWithStore(store datastore.RecordStore, cfg *config.Config, log zerolog.Logger) *Client {
	engine := batch.New(store, batch.Options{
		MaxBatchSize:         cfg.Engine.MaxBatchSize,
		MaxConcurrency:       cfg.Engine.MaxConcurrency,
		SequentialPartitions: cfg.Engine.SequentialPartitions,
		RetryAttempts:        cfg.Engine.RetryAttempts,
		RetryBaseDelay:       cfg.Engine.RetryBaseDelay.Std(),
		RetryMaxDelay:        cfg.Engine.RetryMaxDelay.Std(),
		Logger:               log,
	})
	return &Client{store: store, engine: engine, log: log}
}

// ExecuteBatch runs an ordered batch of one kind and returns per-item
// outcomes in input order plus summary counts. See the batch package for
// the atomicity and ordering contract.
func (c *Client) ExecuteBatch(ctx context.Context, kind batch.Kind, ops []batch.Operation) (*batch.Result, error) {
	return c.engine.ExecuteBatch(ctx, kind, ops)
}

// CreateRecord stores a single new record.
func (c *Client) CreateRecord(ctx context.Context, in *storagemodels.RecordInput) (*storagemodels.Record, error) {
	return c.store.CreateRecord(ctx, in)
}

// GetRecord retrieves a single record.
func (c *Client) GetRecord(ctx context.Context, partitionKey, id string) (*storagemodels.Record, error) {
	return c.store.GetRecord(ctx, partitionKey, id)
}

// PatchRecord applies a partial update under the version tag precondition.
func (c *Client) PatchRecord(ctx context.Context, partitionKey, id, expectedVersion string, patch *storagemodels.RecordPatch) (*storagemodels.Record, error) {
	return c.store.PatchRecord(ctx, partitionKey, id, expectedVersion, patch)
}

// DeleteRecord removes a single record.
func (c *Client) DeleteRecord(ctx context.Context, partitionKey, id string) error {
	return c.store.DeleteRecord(ctx, partitionKey, id)
}

// ListByPartition returns one page of a partition's records.
func (c *Client) ListByPartition(ctx context.Context, params *storagemodels.ListParams) (*storagemodels.RecordPage, error) {
	return c.store.ListByPartition(ctx, params)
}
