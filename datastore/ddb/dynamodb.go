/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	goerrors "errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/registry"
	"github.com/suparena/inventorystore/storagemodels"
)

// recordEntityType is the EntityType attribute value stamped on every item
// this store writes, used by listing queries to pick the unmarshal function.
const recordEntityType = "Record"

// DefaultRecordIndexMap is the key scheme registered for Record unless the
// application registered its own before constructing a store.
var DefaultRecordIndexMap = map[string]string{
	"PK": "INV#{PartitionKey}",
	"SK": "REC#{ID}",
}

// DynamoClient is the interface satisfied by both the real DynamoDB client
// and test doubles.
type DynamoClient interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
}

// RecordStore implements datastore.RecordStore on DynamoDB. The client is a
// shared, stateless resource; one RecordStore is safe for use by many
// concurrent callers.
type RecordStore struct {
	client    DynamoClient
	tableName string
	log       zerolog.Logger
}

var registerRecordModel sync.Once

// NewClient initializes a DynamoDB client using static AWS credentials.
func NewClient(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(awsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// NewRecordStore constructs a RecordStore over the given client and table.
// The Record key scheme and unmarshal function are registered on first use
// unless the application registered its own index map beforehand.
func NewRecordStore(client DynamoClient, tableName string, log zerolog.Logger) *RecordStore {
	registerRecordModel.Do(func() {
		if _, ok := registry.GetIndexMap[storagemodels.Record](); !ok {
			registry.RegisterIndexMap[storagemodels.Record](DefaultRecordIndexMap)
		}
		registry.RegisterType(recordEntityType, func(item map[string]types.AttributeValue) (interface{}, error) {
			var rec storagemodels.Record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, err
			}
			return &rec, nil
		})
	})
	return &RecordStore{client: client, tableName: tableName, log: log}
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros fills the index map templates (e.g. "INV#{PartitionKey}")
// from the given value's fields.
func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keys input: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			val, ok := av[key]
			if !ok {
				return ""
			}
			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
		res[fieldName] = expanded
	}
	return res, nil
}

// recordKeyInput carries the two fields the Record key templates expand.
type recordKeyInput struct {
	PartitionKey string
	ID           string
}

// recordKey builds the table key for one record.
func recordKey(partitionKey, id string) (map[string]types.AttributeValue, error) {
	indexMap, ok := registry.GetIndexMap[storagemodels.Record]()
	if !ok {
		return nil, errors.ErrNoIndexMap
	}
	expanded, err := expandMacros(indexMap, recordKeyInput{
		PartitionKey: storagemodels.NormalizePartitionKey(partitionKey),
		ID:           id,
	})
	if err != nil {
		return nil, err
	}
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]
	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// recordItem marshals a record and injects its key attributes and EntityType.
func recordItem(rec *storagemodels.Record) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	key, err := recordKey(rec.PartitionKey, rec.ID)
	if err != nil {
		return nil, err
	}
	for k, v := range key {
		av[k] = v
	}
	av["EntityType"] = &types.AttributeValueMemberS{Value: recordEntityType}
	return av, nil
}

// CreateRecord validates and stores a new record, rejecting a duplicate id
// within the same partition.
func (s *RecordStore) CreateRecord(ctx context.Context, in *storagemodels.RecordInput) (*storagemodels.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec := storagemodels.NewRecord(in)
	av, err := recordItem(rec)
	if err != nil {
		return nil, err
	}

	condition := "attribute_not_exists(PK) AND attribute_not_exists(SK)"
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &s.tableName,
		Item:                av,
		ConditionExpression: &condition,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if goerrors.As(err, &cfe) {
			return nil, errors.NewAlreadyExistsError(rec.ID, rec.PartitionKey)
		}
		return nil, classifyAPIError("create", rec.PartitionKey, err)
	}
	return rec, nil
}

// GetRecord retrieves a single record by partition key and id.
func (s *RecordStore) GetRecord(ctx context.Context, partitionKey, id string) (*storagemodels.Record, error) {
	key, err := recordKey(partitionKey, id)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, classifyAPIError("get", partitionKey, err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError(id, partitionKey)
	}
	var rec storagemodels.Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// PatchRecord applies a partial update under the version tag precondition
// and returns the updated record with its new version tag.
func (s *RecordStore) PatchRecord(ctx context.Context, partitionKey, id, expectedVersion string, patch *storagemodels.RecordPatch) (*storagemodels.Record, error) {
	if expectedVersion == "" {
		return nil, errors.NewValidationError("expectedVersion", "must not be empty")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	key, err := recordKey(partitionKey, id)
	if err != nil {
		return nil, err
	}

	newVersion := uuid.NewString()
	updateExpr, exprNames, exprValues, err := buildPatchExpression(patch, newVersion)
	if err != nil {
		return nil, err
	}
	exprValues[":expectedVersion"] = &types.AttributeValueMemberS{Value: expectedVersion}
	condition := "attribute_exists(PK) AND VersionTag = :expectedVersion"

	out, err := s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                           &s.tableName,
		Key:                                 key,
		UpdateExpression:                    &updateExpr,
		ExpressionAttributeNames:            exprNames,
		ExpressionAttributeValues:           exprValues,
		ConditionExpression:                 &condition,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if goerrors.As(err, &cfe) {
			// The failed-check item distinguishes a missing record from a
			// version mismatch.
			if cfe.Item == nil {
				return nil, errors.NewNotFoundError(id, partitionKey)
			}
			return nil, errors.NewPreconditionFailedError(id, expectedVersion)
		}
		return nil, classifyAPIError("update", partitionKey, err)
	}

	var rec storagemodels.Record
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated record: %w", err)
	}
	return &rec, nil
}

// DeleteRecord removes a record, reporting a typed not-found error when the
// id does not exist in the partition.
func (s *RecordStore) DeleteRecord(ctx context.Context, partitionKey, id string) error {
	key, err := recordKey(partitionKey, id)
	if err != nil {
		return err
	}
	condition := "attribute_exists(PK)"
	_, err = s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 key,
		ConditionExpression: &condition,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if goerrors.As(err, &cfe) {
			return errors.NewNotFoundError(id, partitionKey)
		}
		return classifyAPIError("delete", partitionKey, err)
	}
	return nil
}

// buildPatchExpression transforms a patch into an update expression:
//   - "SET #f0 = :v0, #f1 = :v1, VersionTag = :newVersion, UpdatedAt = :updatedAt"
//   - the corresponding attribute name and value maps
//
// The version tag and UpdatedAt are always rewritten; a patched field can
// never collide with them because patches carry domain fields only.
func buildPatchExpression(patch *storagemodels.RecordPatch, newVersion string) (string, map[string]string, map[string]types.AttributeValue, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return "", nil, nil, errors.NewValidationError("", "no patch fields provided")
	}

	setClauses := make([]string, 0, len(fields)+2)
	exprNames := make(map[string]string, len(fields))
	exprValues := make(map[string]types.AttributeValue, len(fields)+2)

	i := 0
	for field, val := range fields {
		namePlaceholder := fmt.Sprintf("#f%d", i)
		valuePlaceholder := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(val)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to marshal patch field %q: %w", field, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", namePlaceholder, valuePlaceholder))
		exprNames[namePlaceholder] = field
		exprValues[valuePlaceholder] = av
		i++
	}

	updatedAt, err := attributevalue.Marshal(strfmt.DateTime(time.Now().UTC()))
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	setClauses = append(setClauses, "VersionTag = :newVersion", "UpdatedAt = :updatedAt")
	exprValues[":newVersion"] = &types.AttributeValueMemberS{Value: newVersion}
	exprValues[":updatedAt"] = updatedAt

	return "SET " + strings.Join(setClauses, ", "), exprNames, exprValues, nil
}
