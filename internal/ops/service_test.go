package ops

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ocowchun/tindex/internal/core"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{InMemory: true, EnvironmentTag: "test"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func n(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func TestNewServiceRejectsNonInMemory(t *testing.T) {
	if _, err := NewService(Config{InMemory: false, EnvironmentTag: "test"}); err == nil {
		t.Fatalf("expected error for non-InMemory config")
	}
}

func TestNewServiceRejectsNonTestEnvironmentTag(t *testing.T) {
	if _, err := NewService(Config{InMemory: true, EnvironmentTag: "production"}); err == nil {
		t.Fatalf("expected error for non-test EnvironmentTag")
	}
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item := map[string]types.AttributeValue{"PK": s("K"), "SK": s("S"), "status": s("active")}
	if _, err := svc.PutItem(ctx, &dynamodb.PutItemInput{Item: item}); err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	got, err := svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}})
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Item["status"].(*types.AttributeValueMemberS).Value != "active" {
		t.Fatalf("expected status=active, got %v", got.Item["status"])
	}

	if _, err := svc.DeleteItem(ctx, &dynamodb.DeleteItemInput{Key: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}}); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	got, err = svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}})
	if err != nil {
		t.Fatalf("GetItem after delete: %v", err)
	}
	if len(got.Item) != 0 {
		t.Fatalf("expected empty item after delete, got %v", got.Item)
	}
}

// Scenario 4 (§8): conditional put fails and leaves state unchanged.
func TestPutItemConditionalCheckFailedLeavesStateUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.PutItem(ctx, &dynamodb.PutItemInput{
		Item: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S"), "status": s("active")},
	})
	if err != nil {
		t.Fatalf("seed PutItem: %v", err)
	}

	_, err = svc.PutItem(ctx, &dynamodb.PutItemInput{
		Item:                map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if _, ok := err.(*core.ConditionalCheckFailedError); !ok {
		t.Fatalf("expected ConditionalCheckFailedError, got %v", err)
	}

	got, _ := svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}})
	if got.Item["status"].(*types.AttributeValueMemberS).Value != "active" {
		t.Fatalf("expected item unchanged by failed conditional put, got %v", got.Item)
	}
}

// Scenario 3 (§8): if_not_exists + arithmetic accumulates across calls.
func TestUpdateItemIfNotExistsPlusArithmetic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.PutItem(ctx, &dynamodb.PutItemInput{Item: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}})
	if err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	out, err := svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key:              map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")},
		UpdateExpression: aws.String("SET count = if_not_exists(count, :z) + :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":z": n("0"), ":inc": n("2"),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if out.Attributes["count"].(*types.AttributeValueMemberN).Value != "2" {
		t.Fatalf("expected count=2, got %v", out.Attributes["count"])
	}

	out, err = svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key:              map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")},
		UpdateExpression: aws.String("SET count = if_not_exists(count, :z) + :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":z": n("0"), ":inc": n("3"),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		t.Fatalf("UpdateItem second call: %v", err)
	}
	if out.Attributes["count"].(*types.AttributeValueMemberN).Value != "5" {
		t.Fatalf("expected count=5, got %v", out.Attributes["count"])
	}
}

func TestUpdateItemRejectsKeyMutation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, _ = svc.PutItem(ctx, &dynamodb.PutItemInput{Item: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}})

	_, err := svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key:                       map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")},
		UpdateExpression:          aws.String("SET PK = :other"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":other": s("other")},
	})
	if err == nil {
		t.Fatalf("expected error mutating PK")
	}
}

// Scenario 1 (§8): seed + query with begins_with.
func TestQueryBeginsWith(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sks := []string{"PROFILE#001", "ORDER#001", "ORDER#002", "ORDER#003", "COMMENT#001"}
	for _, sk := range sks {
		if _, err := svc.PutItem(ctx, &dynamodb.PutItemInput{
			Item: map[string]types.AttributeValue{"PK": s("USER#1"), "SK": s(sk)},
		}); err != nil {
			t.Fatalf("PutItem(%s): %v", sk, err)
		}
	}

	out, err := svc.Query(ctx, &dynamodb.QueryInput{
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :p)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": s("USER#1"), ":p": s("ORDER#"),
		},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if out.Count != 3 || out.ScannedCount != 3 {
		t.Fatalf("expected Count=3 ScannedCount=3, got Count=%d ScannedCount=%d", out.Count, out.ScannedCount)
	}
	if out.LastEvaluatedKey != nil {
		t.Fatalf("expected no LastEvaluatedKey, got %v", out.LastEvaluatedKey)
	}
	want := []string{"ORDER#001", "ORDER#002", "ORDER#003"}
	for i, item := range out.Items {
		got := item["SK"].(*types.AttributeValueMemberS).Value
		if got != want[i] {
			t.Fatalf("item %d: expected SK=%s, got %s", i, want[i], got)
		}
	}
}

// Scenario 2 (§8): GSI query with limit + continuation.
func TestQueryGSIWithLimitAndContinuation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		sk := "SK#" + string(rune('0'+i))
		_, err := svc.PutItem(ctx, &dynamodb.PutItemInput{
			Item: map[string]types.AttributeValue{
				"PK": s("USER#X"), "SK": s(sk),
				"GSI2PK": s("E#x@e.com"), "GSI2SK": s(sk),
			},
		})
		if err != nil {
			t.Fatalf("PutItem %d: %v", i, err)
		}
	}

	out, err := svc.Query(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": s("E#x@e.com"),
		},
		Limit: aws.Int32(3),
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if out.Count != 3 || out.ScannedCount != 3 {
		t.Fatalf("expected Count=3 ScannedCount=3, got %d %d", out.Count, out.ScannedCount)
	}
	if out.LastEvaluatedKey == nil {
		t.Fatalf("expected LastEvaluatedKey to be set")
	}
	for _, attr := range []string{"PK", "SK", "GSI2PK", "GSI2SK"} {
		if _, ok := out.LastEvaluatedKey[attr]; !ok {
			t.Fatalf("expected LastEvaluatedKey to carry %s", attr)
		}
	}

	out2, err := svc.Query(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": s("E#x@e.com"),
		},
		Limit:             aws.Int32(3),
		ExclusiveStartKey: out.LastEvaluatedKey,
	})
	if err != nil {
		t.Fatalf("second Query: %v", err)
	}
	if out2.Count != 3 {
		t.Fatalf("expected second page Count=3, got %d", out2.Count)
	}
	if out.Items[2]["SK"].(*types.AttributeValueMemberS).Value == out2.Items[0]["SK"].(*types.AttributeValueMemberS).Value {
		t.Fatalf("expected second page to continue past the first page's last item")
	}
}

func TestQueryRejectsExcludedIndex(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Query(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": s("x"),
		},
	})
	if _, ok := err.(*core.NotSupportedError); !ok {
		t.Fatalf("expected NotSupportedError for GSI1, got %v", err)
	}
}

func TestQueryRejectsConsistentReadOnGSI(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Query(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": s("x"),
		},
		ConsistentRead: aws.Bool(true),
	})
	if err == nil {
		t.Fatalf("expected validation error for ConsistentRead on a GSI")
	}
}

func TestScanWithLimitAndContinuation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, sk := range []string{"a", "b", "c"} {
		_, _ = svc.PutItem(ctx, &dynamodb.PutItemInput{Item: map[string]types.AttributeValue{"PK": s("K"), "SK": s(sk)}})
	}

	out, err := svc.Scan(ctx, &dynamodb.ScanInput{Limit: aws.Int32(2)})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Count != 2 || out.LastEvaluatedKey == nil {
		t.Fatalf("expected first page of 2 with continuation, got Count=%d LastEvaluatedKey=%v", out.Count, out.LastEvaluatedKey)
	}

	out2, err := svc.Scan(ctx, &dynamodb.ScanInput{ExclusiveStartKey: out.LastEvaluatedKey})
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if out2.Count != 1 {
		t.Fatalf("expected remaining 1 item, got %d", out2.Count)
	}
}

func TestBatchGetItemRejectsDuplicateKeys(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			"t": {Keys: []map[string]types.AttributeValue{
				{"PK": s("K"), "SK": s("S")},
				{"PK": s("K"), "SK": s("S")},
			}},
		},
	})
	if err == nil {
		t.Fatalf("expected validation error for duplicate batch_get keys")
	}
}

func TestBatchWriteItemAppliesPutAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, _ = svc.PutItem(ctx, &dynamodb.PutItemInput{Item: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}})

	_, err := svc.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			"t": {
				{PutRequest: &types.PutRequest{Item: map[string]types.AttributeValue{"PK": s("B"), "SK": s("B")}}},
				{DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}}},
			},
		},
	})
	if err != nil {
		t.Fatalf("BatchWriteItem: %v", err)
	}

	got, _ := svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s("B"), "SK": s("B")}})
	if len(got.Item) == 0 {
		t.Fatalf("expected B/B to have been put")
	}
	got, _ = svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}})
	if len(got.Item) != 0 {
		t.Fatalf("expected A/A to have been deleted")
	}
}

func TestTransactWriteItemsRollsBackOnConditionFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, _ = svc.PutItem(ctx, &dynamodb.PutItemInput{Item: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A"), "v": n("1")}})

	_, err := svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				Key:              map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")},
				UpdateExpression: aws.String("SET v = :v"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":v": n("2"),
				},
			}},
			{ConditionCheck: &types.ConditionCheck{
				Key:                 map[string]types.AttributeValue{"PK": s("B"), "SK": s("B")},
				ConditionExpression: aws.String("attribute_exists(PK)"),
			}},
		},
	})
	if _, ok := err.(*core.TransactionCanceledError); !ok {
		t.Fatalf("expected TransactionCanceledError, got %v", err)
	}

	got, _ := svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}})
	if got.Item["v"].(*types.AttributeValueMemberN).Value != "1" {
		t.Fatalf("expected rollback to restore v=1, got %v", got.Item["v"])
	}
}

func TestTransactWriteItemsRejectsMultipleOperationsOnOneItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{Item: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}}},
			{Delete: &types.Delete{Key: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}}},
		},
	})
	if err == nil {
		t.Fatalf("expected validation error for duplicate primary key across transact items")
	}
}

func TestTransactWriteItemsCommitsAllOnSuccess(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{Item: map[string]types.AttributeValue{"PK": s("A"), "SK": s("A")}}},
			{Put: &types.Put{Item: map[string]types.AttributeValue{"PK": s("B"), "SK": s("B")}}},
		},
	})
	if err != nil {
		t.Fatalf("TransactWriteItems: %v", err)
	}

	for _, pk := range []string{"A", "B"} {
		got, _ := svc.GetItem(ctx, &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"PK": s(pk), "SK": s(pk)}})
		if len(got.Item) == 0 {
			t.Fatalf("expected %s/%s to exist after commit", pk, pk)
		}
	}
}

func TestDescribeTableLikeReportsFixedSchemaAndCount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.SetTableName("orders")
	_, _ = svc.PutItem(ctx, &dynamodb.PutItemInput{Item: map[string]types.AttributeValue{"PK": s("K"), "SK": s("S")}})

	desc := svc.DescribeTableLike()
	if desc.TableName != "orders" || desc.PartitionKeyName != "PK" || desc.SortKeyName != "SK" {
		t.Fatalf("unexpected description: %+v", desc)
	}
	if desc.ItemCount != 1 {
		t.Fatalf("expected ItemCount=1, got %d", desc.ItemCount)
	}
	if len(desc.GlobalSecondaryIndex) != 18 {
		t.Fatalf("expected 18 usable GSIs, got %d", len(desc.GlobalSecondaryIndex))
	}
}

func TestLimitZeroIsValidationError(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Scan(ctx, &dynamodb.ScanInput{Limit: aws.Int32(0)}); err == nil {
		t.Fatalf("expected validation error for Limit=0")
	}
}
