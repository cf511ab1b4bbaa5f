package ops

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/expr"
	"github.com/ocowchun/tindex/internal/manifest"
	"github.com/ocowchun/tindex/internal/txn"
)

const maxTransactItems = 100

// TransactWriteItems implements transact_write (§4.5), grounded on
// ddb.Service.TransactWriteItems's duplicate-key check and inline
// apply/rollback, generalized into txn.Processor's named state machine.
func (svc *Service) TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
	if err := validateParams(manifest.TransactWrite, presentOf(
		flag("TransactItems", input.TransactItems != nil),
		flag("ClientRequestToken", input.ClientRequestToken != nil),
	)); err != nil {
		return nil, err
	}
	if len(input.TransactItems) == 0 || len(input.TransactItems) > maxTransactItems {
		return nil, core.NewValidationError("TransactItems can only contain between 1 and 100 transaction items")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	seen := make(map[string]bool, len(input.TransactItems))
	items := make([]txn.Item, len(input.TransactItems))
	for i, ti := range input.TransactItems {
		pk, sk, tableName, err := transactItemKey(ti)
		if err != nil {
			return nil, err
		}
		if tableName != "" {
			if err := svc.checkTableName(tableName); err != nil {
				return nil, err
			}
		}
		slot := pk + "\x00" + sk
		if seen[slot] {
			return nil, core.NewValidationError("Transaction request cannot include multiple operations on one item")
		}
		seen[slot] = true
		items[i] = svc.buildTransactItem(ti, pk, sk)
	}

	processor := txn.NewProcessor(svc.state)
	failedIndex, err := processor.Run(items)
	if err != nil {
		reasons := make([]string, len(items))
		for i := range reasons {
			switch {
			case i < failedIndex:
				reasons[i] = "None"
			case i == failedIndex:
				reasons[i] = transactCancellationReason(err)
			default:
				reasons[i] = "None"
			}
		}
		return nil, core.NewTransactionCanceledError(reasons, processor.SessionID())
	}

	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func transactCancellationReason(err error) string {
	switch err.(type) {
	case *core.ConditionalCheckFailedError:
		return "ConditionalCheckFailed"
	case *core.ValidationError:
		return "ValidationError"
	default:
		return "ValidationError"
	}
}

func transactItemKey(ti types.TransactWriteItem) (pk, sk, tableName string, err error) {
	switch {
	case ti.ConditionCheck != nil:
		pk, sk, err = keyOf(ti.ConditionCheck.Key)
		if ti.ConditionCheck.TableName != nil {
			tableName = *ti.ConditionCheck.TableName
		}
	case ti.Put != nil:
		item := core.ItemFromDynamoDB(ti.Put.Item)
		pkv, ok := item["PK"]
		if !ok || pkv.S == nil {
			return "", "", "", core.NewValidationError("One of the required keys was not given a value")
		}
		skv, ok := item["SK"]
		if !ok || skv.S == nil {
			return "", "", "", core.NewValidationError("One of the required keys was not given a value")
		}
		pk, sk = *pkv.S, *skv.S
		if ti.Put.TableName != nil {
			tableName = *ti.Put.TableName
		}
	case ti.Delete != nil:
		pk, sk, err = keyOf(ti.Delete.Key)
		if ti.Delete.TableName != nil {
			tableName = *ti.Delete.TableName
		}
	case ti.Update != nil:
		pk, sk, err = keyOf(ti.Update.Key)
		if ti.Update.TableName != nil {
			tableName = *ti.Update.TableName
		}
	default:
		return "", "", "", core.NewValidationError("TransactItems can only contain one of ConditionCheck, Put, Delete, or Update")
	}
	return pk, sk, tableName, err
}

func (svc *Service) buildTransactItem(ti types.TransactWriteItem, pk, sk string) txn.Item {
	switch {
	case ti.ConditionCheck != nil:
		cc := ti.ConditionCheck
		return txn.Item{Apply: func(tracker *txn.Tracker) error {
			names, values := namesValuesOf(cc.ExpressionAttributeNames, cc.ExpressionAttributeValues)
			current, _ := svc.state.CloneItemByKey(pk, sk)
			if cc.ConditionExpression == nil {
				return core.NewValidationError("ConditionCheck requires a ConditionExpression")
			}
			ok, err := expr.EvalConditionString(*cc.ConditionExpression, current, names, values)
			if err != nil {
				return core.NewValidationError("%s", err.Error())
			}
			if !ok {
				return core.NewConditionalCheckFailedError()
			}
			return nil
		}}
	case ti.Put != nil:
		put := ti.Put
		return txn.Item{Apply: func(tracker *txn.Tracker) error {
			names, values := namesValuesOf(put.ExpressionAttributeNames, put.ExpressionAttributeValues)
			if put.ConditionExpression != nil {
				current, _ := svc.state.CloneItemByKey(pk, sk)
				ok, err := expr.EvalConditionString(*put.ConditionExpression, current, names, values)
				if err != nil {
					return core.NewValidationError("%s", err.Error())
				}
				if !ok {
					return core.NewConditionalCheckFailedError()
				}
			}
			tracker.RecordBeforeWrite(pk, sk)
			svc.recordBeforeWrite(pk, sk)
			return svc.state.Put(core.ItemFromDynamoDB(put.Item))
		}}
	case ti.Delete != nil:
		del := ti.Delete
		return txn.Item{Apply: func(tracker *txn.Tracker) error {
			names, values := namesValuesOf(del.ExpressionAttributeNames, del.ExpressionAttributeValues)
			if del.ConditionExpression != nil {
				current, _ := svc.state.CloneItemByKey(pk, sk)
				ok, err := expr.EvalConditionString(*del.ConditionExpression, current, names, values)
				if err != nil {
					return core.NewValidationError("%s", err.Error())
				}
				if !ok {
					return core.NewConditionalCheckFailedError()
				}
			}
			tracker.RecordBeforeWrite(pk, sk)
			svc.recordBeforeWrite(pk, sk)
			svc.state.DeleteByKey(pk, sk)
			return nil
		}}
	default: // ti.Update != nil
		upd := ti.Update
		return txn.Item{Apply: func(tracker *txn.Tracker) error {
			names, values := namesValuesOf(upd.ExpressionAttributeNames, upd.ExpressionAttributeValues)
			current, existed := svc.state.CloneItemByKey(pk, sk)
			if upd.ConditionExpression != nil {
				base := current
				if !existed {
					base = core.Item{}
				}
				ok, err := expr.EvalConditionString(*upd.ConditionExpression, base, names, values)
				if err != nil {
					return core.NewValidationError("%s", err.Error())
				}
				if !ok {
					return core.NewConditionalCheckFailedError()
				}
			}
			base := current
			if !existed {
				base = core.Item{"PK": core.S(pk), "SK": core.S(sk)}
			}
			tracker.RecordBeforeWrite(pk, sk)
			svc.recordBeforeWrite(pk, sk)
			if err := expr.ApplyUpdateString(*upd.UpdateExpression, base, names, values, keyAttrs); err != nil {
				return core.NewValidationError("%s", err.Error())
			}
			return svc.state.Put(base)
		}}
	}
}
