/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/registry"
	"github.com/suparena/inventorystore/storagemodels"
)

// ListByPartition returns one page of the records stored under a partition
// key, with an opaque continuation token for the next page.
//
// Items carry an EntityType attribute injected at persist time; it selects
// the unmarshal function from the type registry so single-table deployments
// that mix entity kinds under one partition still list cleanly. Non-record
// entities are skipped.
func (s *RecordStore) ListByPartition(ctx context.Context, params *storagemodels.ListParams) (*storagemodels.RecordPage, error) {
	pk := storagemodels.NormalizePartitionKey(params.PartitionKey)
	if pk == "" {
		return nil, errors.NewValidationError("partitionKey", "must not be empty")
	}

	indexMap, ok := registry.GetIndexMap[storagemodels.Record]()
	if !ok {
		return nil, errors.ErrNoIndexMap
	}
	expanded, err := expandMacros(indexMap, recordKeyInput{PartitionKey: pk})
	if err != nil {
		return nil, err
	}
	partitionAttr := expanded["PK"]
	if partitionAttr == "" {
		return nil, fmt.Errorf("index map produced an empty partition attribute")
	}

	keyCond := "PK = :pk"
	input := &sdk.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: &keyCond,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partitionAttr},
		},
	}
	if params.Limit > 0 {
		input.Limit = aws.Int32(params.Limit)
	}
	if params.StartToken != "" {
		startKey, err := decodePageToken(params.StartToken)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = startKey
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, classifyAPIError("list", pk, err)
	}

	page := &storagemodels.RecordPage{Items: make([]storagemodels.Record, 0, len(out.Items))}
	for _, item := range out.Items {
		var entityType string
		if attr, ok := item["EntityType"]; ok {
			if err := attributevalue.Unmarshal(attr, &entityType); err != nil {
				return nil, fmt.Errorf("failed to unmarshal EntityType: %w", err)
			}
		}
		if entityType == "" {
			s.log.Debug().Str("partition", pk).Msg("skipping item without EntityType")
			continue
		}

		unmarshalFn, err := registry.GetUnmarshalFunc(entityType)
		if err != nil {
			s.log.Debug().Str("entityType", entityType).Msg("skipping item with unregistered entity type")
			continue
		}
		obj, err := unmarshalFn(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal item for EntityType %q: %w", entityType, err)
		}
		if rec, ok := obj.(*storagemodels.Record); ok {
			page.Items = append(page.Items, *rec)
		}
	}

	if out.LastEvaluatedKey != nil {
		token, err := encodePageToken(out.LastEvaluatedKey)
		if err != nil {
			return nil, err
		}
		page.NextToken = token
	}
	return page, nil
}

// encodePageToken serializes a LastEvaluatedKey as an opaque token. The table
// keys are string attributes, so a flat map round-trips them.
func encodePageToken(key map[string]types.AttributeValue) (string, error) {
	flat := make(map[string]string, len(key))
	for name, attr := range key {
		s, ok := attr.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("unsupported key attribute type for %q", name)
		}
		flat[name] = s.Value
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("failed to encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodePageToken(token string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewValidationError("startToken", "malformed continuation token")
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, errors.NewValidationError("startToken", "malformed continuation token")
	}
	key := make(map[string]types.AttributeValue, len(flat))
	for name, val := range flat {
		key[name] = &types.AttributeValueMemberS{Value: val}
	}
	return key, nil
}
