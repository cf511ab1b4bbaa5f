package ops

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/manifest"
)

const (
	maxBatchGetKeys       = 100
	maxBatchWriteRequests = 25
)

// BatchGetItem implements batch_get (§4.5): at most 100 keys per table, no
// duplicate keys, missing keys simply omitted from the response.
func (svc *Service) BatchGetItem(ctx context.Context, input *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	if err := validateParams(manifest.BatchGet, presentOf(
		flag("RequestItems", input.RequestItems != nil),
	)); err != nil {
		return nil, err
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	responses := make(map[string][]map[string]types.AttributeValue, len(input.RequestItems))
	for tableName, req := range input.RequestItems {
		if err := svc.checkTableName(tableName); err != nil {
			return nil, err
		}
		if len(req.Keys) > maxBatchGetKeys {
			return nil, core.NewValidationError("Too many items requested for the BatchGetItem call")
		}
		seen := make(map[string]bool, len(req.Keys))
		items := make([]map[string]types.AttributeValue, 0, len(req.Keys))
		for _, key := range req.Keys {
			pk, sk, err := keyOf(key)
			if err != nil {
				return nil, err
			}
			slot := pk + "\x00" + sk
			if seen[slot] {
				return nil, core.NewValidationError("Provided list of item keys contains duplicates")
			}
			seen[slot] = true
			item, ok := svc.state.CloneItemByKey(pk, sk)
			if !ok {
				continue
			}
			items = append(items, item.ToDynamoDB())
		}
		responses[tableName] = items
	}

	return &dynamodb.BatchGetItemOutput{Responses: responses}, nil
}

// BatchWriteItem implements batch_write (§4.5): up to 25 put/delete
// requests per table, applied without conditions.
func (svc *Service) BatchWriteItem(ctx context.Context, input *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
	if err := validateParams(manifest.BatchWrite, presentOf(
		flag("RequestItems", input.RequestItems != nil),
	)); err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	for tableName, requests := range input.RequestItems {
		if err := svc.checkTableName(tableName); err != nil {
			return nil, err
		}
		if len(requests) > maxBatchWriteRequests {
			return nil, core.NewValidationError("Too many items requested for the BatchWriteItem call")
		}
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				item := core.ItemFromDynamoDB(req.PutRequest.Item)
				pkv, ok := item["PK"]
				if !ok || pkv.S == nil {
					return nil, core.NewValidationError("One of the required keys was not given a value")
				}
				skv, ok := item["SK"]
				if !ok || skv.S == nil {
					return nil, core.NewValidationError("One of the required keys was not given a value")
				}
				svc.recordBeforeWrite(*pkv.S, *skv.S)
				if err := svc.state.Put(item); err != nil {
					return nil, err
				}
			case req.DeleteRequest != nil:
				pk, sk, err := keyOf(req.DeleteRequest.Key)
				if err != nil {
					return nil, err
				}
				svc.recordBeforeWrite(pk, sk)
				svc.state.DeleteByKey(pk, sk)
			default:
				return nil, core.NewValidationError("Supplied AttributeValue is empty, must contain exactly one of the supported datatypes")
			}
		}
	}

	return &dynamodb.BatchWriteItemOutput{}, nil
}
