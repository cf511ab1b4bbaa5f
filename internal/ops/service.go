package ops

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/expr"
	"github.com/ocowchun/tindex/internal/indexset"
	"github.com/ocowchun/tindex/internal/manifest"
	"github.com/ocowchun/tindex/internal/table"
	"github.com/ocowchun/tindex/internal/treap"
	"github.com/ocowchun/tindex/internal/txn"
)

// Service is the operation surface (§4.5): it validates requests against
// the spec manifest and drives a single table.State, the way ddb.Service
// drives inner_storage.InnerStorage behind one tableLock. There is no
// CreateTable/DescribeTable surface here — the engine's schema is fixed
// (PK/SK plus the GSI2..GSI19 key-attribute convention), so the lock
// guards one implicit table rather than a registry of them.
type Service struct {
	mu        sync.RWMutex
	tableName string
	state     *table.State
	trackers  []*txn.Tracker
}

// NewService validates cfg and returns a Service over a fresh table.State.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Service{state: table.New()}, nil
}

// SetTableName performs the "table-name injection" configuration option
// (§6): callers may name the table after construction. Requests carrying
// a different TableName fail as if against a nonexistent table.
func (svc *Service) SetTableName(name string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.tableName = name
}

func (svc *Service) checkTableName(name string) error {
	if svc.tableName != "" && name != svc.tableName {
		msg := "Cannot do operations on a non-existent table"
		return &types.ResourceNotFoundException{Message: &msg}
	}
	return nil
}

func presentOf(pairs ...struct {
	name    string
	present bool
}) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.present {
			out = append(out, p.name)
		}
	}
	return out
}

func flag(name string, present bool) struct {
	name    string
	present bool
} {
	return struct {
		name    string
		present bool
	}{name, present}
}

// GetItem implements get (§4.5).
func (svc *Service) GetItem(ctx context.Context, input *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
	if err := validateParams(manifest.Get, presentOf(
		flag("TableName", input.TableName != nil),
		flag("Key", input.Key != nil),
		flag("ConsistentRead", input.ConsistentRead != nil),
	)); err != nil {
		return nil, err
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if input.TableName != nil {
		if err := svc.checkTableName(*input.TableName); err != nil {
			return nil, err
		}
	}

	pk, sk, err := keyOf(input.Key)
	if err != nil {
		return nil, err
	}
	item, ok := svc.state.CloneItemByKey(pk, sk)
	if !ok {
		return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{}}, nil
	}
	return &dynamodb.GetItemOutput{Item: item.ToDynamoDB()}, nil
}

// PutItem implements put (§4.5).
func (svc *Service) PutItem(ctx context.Context, input *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	if err := validateParams(manifest.Put, presentOf(
		flag("TableName", input.TableName != nil),
		flag("Item", input.Item != nil),
		flag("ConditionExpression", input.ConditionExpression != nil),
		flag("ExpressionAttributeNames", input.ExpressionAttributeNames != nil),
		flag("ExpressionAttributeValues", input.ExpressionAttributeValues != nil),
		flag("ReturnValues", input.ReturnValues != ""),
	)); err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if input.TableName != nil {
		if err := svc.checkTableName(*input.TableName); err != nil {
			return nil, err
		}
	}

	item := core.ItemFromDynamoDB(input.Item)
	pkVal, ok := item["PK"]
	if !ok || pkVal.S == nil {
		return nil, core.NewValidationError("One of the required keys was not given a value")
	}
	skVal, ok := item["SK"]
	if !ok || skVal.S == nil {
		return nil, core.NewValidationError("One of the required keys was not given a value")
	}

	names, values := namesValuesOf(input.ExpressionAttributeNames, input.ExpressionAttributeValues)

	if input.ConditionExpression != nil {
		current, _ := svc.state.CloneItemByKey(*pkVal.S, *skVal.S)
		ok, err := expr.EvalConditionString(*input.ConditionExpression, current, names, values)
		if err != nil {
			return nil, core.NewValidationError("%s", err.Error())
		}
		if !ok {
			return nil, core.NewConditionalCheckFailedError()
		}
	}

	svc.recordBeforeWrite(*pkVal.S, *skVal.S)
	if err := svc.state.Put(item); err != nil {
		return nil, err
	}
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem implements update (§4.5).
func (svc *Service) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
	if err := validateParams(manifest.Update, presentOf(
		flag("TableName", input.TableName != nil),
		flag("Key", input.Key != nil),
		flag("UpdateExpression", input.UpdateExpression != nil),
		flag("ConditionExpression", input.ConditionExpression != nil),
		flag("ExpressionAttributeNames", input.ExpressionAttributeNames != nil),
		flag("ExpressionAttributeValues", input.ExpressionAttributeValues != nil),
		flag("ReturnValues", input.ReturnValues != ""),
	)); err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if input.TableName != nil {
		if err := svc.checkTableName(*input.TableName); err != nil {
			return nil, err
		}
	}

	pk, sk, err := keyOf(input.Key)
	if err != nil {
		return nil, err
	}
	names, values := namesValuesOf(input.ExpressionAttributeNames, input.ExpressionAttributeValues)

	current, existed := svc.state.CloneItemByKey(pk, sk)
	if input.ConditionExpression != nil {
		base := current
		if !existed {
			base = core.Item{}
		}
		ok, err := expr.EvalConditionString(*input.ConditionExpression, base, names, values)
		if err != nil {
			return nil, core.NewValidationError("%s", err.Error())
		}
		if !ok {
			return nil, core.NewConditionalCheckFailedError()
		}
	}

	base := current
	if !existed {
		base = core.Item{"PK": core.S(pk), "SK": core.S(sk)}
	}
	if input.UpdateExpression == nil {
		return nil, core.NewValidationError("The UpdateExpression parameter is required")
	}
	if err := expr.ApplyUpdateString(*input.UpdateExpression, base, names, values, keyAttrs); err != nil {
		return nil, core.NewValidationError("%s", err.Error())
	}
	svc.recordBeforeWrite(pk, sk)
	if err := svc.state.Put(base); err != nil {
		return nil, err
	}

	output := &dynamodb.UpdateItemOutput{}
	if input.ReturnValues == types.ReturnValueAllNew {
		output.Attributes = base.ToDynamoDB()
	}
	return output, nil
}

// DeleteItem implements delete (§4.5).
func (svc *Service) DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
	if err := validateParams(manifest.Delete, presentOf(
		flag("TableName", input.TableName != nil),
		flag("Key", input.Key != nil),
		flag("ConditionExpression", input.ConditionExpression != nil),
		flag("ExpressionAttributeNames", input.ExpressionAttributeNames != nil),
		flag("ExpressionAttributeValues", input.ExpressionAttributeValues != nil),
		flag("ReturnValues", input.ReturnValues != ""),
	)); err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if input.TableName != nil {
		if err := svc.checkTableName(*input.TableName); err != nil {
			return nil, err
		}
	}

	pk, sk, err := keyOf(input.Key)
	if err != nil {
		return nil, err
	}
	names, values := namesValuesOf(input.ExpressionAttributeNames, input.ExpressionAttributeValues)

	current, existed := svc.state.CloneItemByKey(pk, sk)
	if input.ConditionExpression != nil {
		base := current
		if !existed {
			base = core.Item{}
		}
		ok, err := expr.EvalConditionString(*input.ConditionExpression, base, names, values)
		if err != nil {
			return nil, core.NewValidationError("%s", err.Error())
		}
		if !ok {
			return nil, core.NewConditionalCheckFailedError()
		}
	}

	svc.recordBeforeWrite(pk, sk)
	prior, _ := svc.state.DeleteByKey(pk, sk)
	output := &dynamodb.DeleteItemOutput{}
	if input.ReturnValues == types.ReturnValueAllOld && prior != nil {
		output.Attributes = prior.ToDynamoDB()
	}
	return output, nil
}

// keyAttrs marks PK/SK as immutable through SET/REMOVE (§4.4).
var keyAttrs = map[string]bool{"PK": true, "SK": true}

func keyOf(key map[string]types.AttributeValue) (pk, sk string, err error) {
	item := core.ItemFromDynamoDB(key)
	pkVal, ok := item["PK"]
	if !ok || pkVal.S == nil {
		return "", "", core.NewValidationError("One of the required keys was not given a value")
	}
	skVal, ok := item["SK"]
	if !ok || skVal.S == nil {
		return "", "", core.NewValidationError("One of the required keys was not given a value")
	}
	return *pkVal.S, *skVal.S, nil
}

func namesValuesOf(names map[string]string, values map[string]types.AttributeValue) (expr.Names, expr.Values) {
	n := expr.Names(names)
	v := make(expr.Values, len(values))
	for k, val := range values {
		v[k] = core.FromDynamoDB(val)
	}
	return n, v
}

// Query implements query (§4.5).
func (svc *Service) Query(ctx context.Context, input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	if err := validateParams(manifest.Query, presentOf(
		flag("TableName", input.TableName != nil),
		flag("IndexName", input.IndexName != nil),
		flag("KeyConditionExpression", input.KeyConditionExpression != nil),
		flag("FilterExpression", input.FilterExpression != nil),
		flag("ExpressionAttributeNames", input.ExpressionAttributeNames != nil),
		flag("ExpressionAttributeValues", input.ExpressionAttributeValues != nil),
		flag("Limit", input.Limit != nil),
		flag("ExclusiveStartKey", input.ExclusiveStartKey != nil),
		flag("ScanIndexForward", input.ScanIndexForward != nil),
		flag("ConsistentRead", input.ConsistentRead != nil),
	)); err != nil {
		return nil, err
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if input.TableName != nil {
		if err := svc.checkTableName(*input.TableName); err != nil {
			return nil, err
		}
	}

	indexName := "primary"
	if input.IndexName != nil {
		indexName = *input.IndexName
	}
	if manifest.IsExcludedIndex(indexName) {
		return nil, core.NewNotSupportedError(manifest.Query, "IndexName", fmt.Sprintf("index %s is excluded", indexName))
	}
	if indexName != "primary" && input.ConsistentRead != nil && *input.ConsistentRead {
		return nil, core.NewValidationError("Consistent reads are not supported on global secondary indexes")
	}

	if input.KeyConditionExpression == nil {
		return nil, core.NewValidationError("The KeyConditionExpression parameter is required")
	}
	names, values := namesValuesOf(input.ExpressionAttributeNames, input.ExpressionAttributeValues)
	kc, err := expr.EvalKeyCondition(*input.KeyConditionExpression, names, values)
	if err != nil {
		return nil, core.NewValidationError("%s", err.Error())
	}
	hashAttr, rangeAttr := manifest.HashRangeAttrNames(indexName)
	if kc.HashAttr != hashAttr || (kc.HasRange && kc.RangeAttr != rangeAttr) {
		return nil, core.NewValidationError("Query key condition does not match the index's key schema")
	}

	limit := -1
	if input.Limit != nil {
		if *input.Limit < 1 {
			return nil, core.NewValidationError("Invalid Limit")
		}
		limit = int(*input.Limit)
	}

	dir := treap.Ascending
	if input.ScanIndexForward != nil && !*input.ScanIndexForward {
		dir = treap.Descending
	}

	var exclusiveStart *indexset.ExclusiveStart
	if input.ExclusiveStartKey != nil {
		exclusiveStart, err = exclusiveStartFromKey(input.ExclusiveStartKey, rangeAttr)
		if err != nil {
			return nil, err
		}
	}

	bounds := kc.Bounds
	items := make([]core.Item, 0)
	scannedCount := 0
	var lastCandidate *core.Item

	svc.state.IndexSet().IterateCandidates(indexName, kc.HashValue, bounds, dir, exclusiveStart, func(cand indexset.Candidate) bool {
		item, ok := svc.state.ItemByEncodedKey(cand.ItemKey)
		if !ok {
			return true
		}
		scannedCount++
		include := true
		if input.FilterExpression != nil {
			ok, ferr := expr.EvalConditionString(*input.FilterExpression, item, names, values)
			if ferr != nil {
				err = core.NewValidationError("%s", ferr.Error())
				return false
			}
			include = ok
		}
		if include {
			items = append(items, item)
			lc := item
			lastCandidate = &lc
		}
		if limit > 0 && scannedCount == limit {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	output := &dynamodb.QueryOutput{
		Items:        itemsToDynamoDB(items),
		Count:        int32(len(items)),
		ScannedCount: int32(scannedCount),
	}
	if limit > 0 && scannedCount == limit && lastCandidate != nil {
		output.LastEvaluatedKey = lastEvaluatedKeyFor(*lastCandidate, indexName, hashAttr, rangeAttr)
	}
	return output, nil
}

// Scan implements scan (§4.5).
func (svc *Service) Scan(ctx context.Context, input *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
	if err := validateParams(manifest.Scan, presentOf(
		flag("TableName", input.TableName != nil),
		flag("FilterExpression", input.FilterExpression != nil),
		flag("ExpressionAttributeNames", input.ExpressionAttributeNames != nil),
		flag("ExpressionAttributeValues", input.ExpressionAttributeValues != nil),
		flag("Limit", input.Limit != nil),
		flag("ExclusiveStartKey", input.ExclusiveStartKey != nil),
	)); err != nil {
		return nil, err
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if input.TableName != nil {
		if err := svc.checkTableName(*input.TableName); err != nil {
			return nil, err
		}
	}

	limit := -1
	if input.Limit != nil {
		if *input.Limit < 1 {
			return nil, core.NewValidationError("Invalid Limit")
		}
		limit = int(*input.Limit)
	}

	names, values := namesValuesOf(input.ExpressionAttributeNames, input.ExpressionAttributeValues)

	var startPK, startSK *string
	if input.ExclusiveStartKey != nil {
		pk, sk, err := keyOf(input.ExclusiveStartKey)
		if err != nil {
			return nil, core.NewValidationError("The provided starting key is invalid")
		}
		startPK, startSK = &pk, &sk
	}

	all := svc.state.ScanItems(startPK, startSK)
	items := make([]core.Item, 0)
	scannedCount := 0
	var lastItem *core.Item

	for _, item := range all {
		scannedCount++
		include := true
		if input.FilterExpression != nil {
			ok, err := expr.EvalConditionString(*input.FilterExpression, item, names, values)
			if err != nil {
				return nil, core.NewValidationError("%s", err.Error())
			}
			include = ok
		}
		if include {
			items = append(items, item)
			it := item
			lastItem = &it
		}
		if limit > 0 && scannedCount == limit {
			break
		}
	}

	output := &dynamodb.ScanOutput{
		Items:        itemsToDynamoDB(items),
		Count:        int32(len(items)),
		ScannedCount: int32(scannedCount),
	}
	if limit > 0 && scannedCount == limit && lastItem != nil {
		output.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": (*lastItem)["PK"].ToDynamoDB(),
			"SK": (*lastItem)["SK"].ToDynamoDB(),
		}
	}
	return output, nil
}

func itemsToDynamoDB(items []core.Item) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, len(items))
	for i, it := range items {
		out[i] = it.ToDynamoDB()
	}
	return out
}

func lastEvaluatedKeyFor(item core.Item, indexName, hashAttr, rangeAttr string) map[string]types.AttributeValue {
	out := map[string]types.AttributeValue{
		"PK": item["PK"].ToDynamoDB(),
		"SK": item["SK"].ToDynamoDB(),
	}
	if indexName != "primary" {
		out[hashAttr] = item[hashAttr].ToDynamoDB()
		out[rangeAttr] = item[rangeAttr].ToDynamoDB()
	}
	return out
}

func exclusiveStartFromKey(key map[string]types.AttributeValue, rangeAttr string) (*indexset.ExclusiveStart, error) {
	item := core.ItemFromDynamoDB(key)
	rv, ok := item[rangeAttr]
	if !ok || rv.S == nil {
		return nil, core.NewValidationError("The provided starting key is invalid")
	}
	pk, sk, err := keyOf(key)
	if err != nil {
		return nil, core.NewValidationError("The provided starting key is invalid")
	}
	return &indexset.ExclusiveStart{RangeValue: *rv.S, ItemKey: core.EncodeItemKey(pk, sk)}, nil
}
