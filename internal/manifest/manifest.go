// Package manifest is the single source of truth for which operation
// parameters and expression features this module supports.
package manifest

import "fmt"

// Method names, matching the operation surface (§4.5).
const (
	Get             = "GetItem"
	Put             = "PutItem"
	Update          = "UpdateItem"
	Delete          = "DeleteItem"
	Query           = "Query"
	Scan            = "Scan"
	BatchGet        = "BatchGetItem"
	BatchWrite      = "BatchWriteItem"
	TransactWrite   = "TransactWriteItems"
)

type methodSpec struct {
	supported   map[string]bool
	unsupported map[string]bool
}

var methods = map[string]methodSpec{
	Get: {
		supported:   set("TableName", "Key", "ConsistentRead"),
		unsupported: set("ProjectionExpression", "AttributesToGet"),
	},
	Put: {
		supported:   set("TableName", "Item", "ConditionExpression", "ExpressionAttributeNames", "ExpressionAttributeValues", "ReturnValues"),
		unsupported: set("Expected", "ConditionalOperator"),
	},
	Update: {
		supported:   set("TableName", "Key", "UpdateExpression", "ConditionExpression", "ExpressionAttributeNames", "ExpressionAttributeValues", "ReturnValues"),
		unsupported: set("AttributeUpdates", "Expected", "ConditionalOperator"),
	},
	Delete: {
		supported:   set("TableName", "Key", "ConditionExpression", "ExpressionAttributeNames", "ExpressionAttributeValues", "ReturnValues"),
		unsupported: set("Expected", "ConditionalOperator"),
	},
	Query: {
		supported: set("TableName", "IndexName", "KeyConditionExpression", "FilterExpression",
			"ExpressionAttributeNames", "ExpressionAttributeValues", "Limit", "ExclusiveStartKey",
			"ScanIndexForward", "ConsistentRead"),
		unsupported: set("KeyConditions", "QueryFilter", "ConditionalOperator", "ProjectionExpression", "Select"),
	},
	Scan: {
		supported:   set("TableName", "FilterExpression", "ExpressionAttributeNames", "ExpressionAttributeValues", "Limit", "ExclusiveStartKey"),
		unsupported: set("ScanFilter", "ConditionalOperator", "ProjectionExpression", "Segment", "TotalSegments", "IndexName"),
	},
	BatchGet: {
		supported:   set("RequestItems"),
		unsupported: set("ReturnConsumedCapacity"),
	},
	BatchWrite: {
		supported:   set("RequestItems"),
		unsupported: set("ReturnConsumedCapacity", "ReturnItemCollectionMetrics"),
	},
	TransactWrite: {
		supported:   set("TransactItems", "ClientRequestToken"),
		unsupported: set("ReturnConsumedCapacity", "ReturnItemCollectionMetrics"),
	},
}

func set(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

// ValidateParams checks the set of parameters present on a request against
// the method's supported/unsupported sets. present must list only the
// parameter names that are non-zero on the caller's request struct.
func ValidateParams(method string, present []string) error {
	spec, ok := methods[method]
	if !ok {
		return fmt.Errorf("method %s is not supported", method)
	}
	for _, p := range present {
		if spec.unsupported[p] {
			return fmt.Errorf("parameter %s is not supported for %s", p, method)
		}
		if !spec.supported[p] {
			return fmt.Errorf("parameter %s is not recognized for %s", p, method)
		}
	}
	return nil
}

// IndexNames returns every index name the engine recognizes, including the
// primary index and the excluded GSI1 (recognized but rejected at query
// time, per ExcludedIndexes).
func IndexNames() []string {
	names := []string{"primary", "GSI1"}
	for i := 2; i <= 19; i++ {
		names = append(names, fmt.Sprintf("GSI%d", i))
	}
	return names
}

// ExcludedIndexes lists index names that are recognized but never usable.
func ExcludedIndexes() []string {
	return []string{"GSI1"}
}

// IsExcludedIndex reports whether name is a recognized-but-excluded index.
func IsExcludedIndex(name string) bool {
	for _, n := range ExcludedIndexes() {
		if n == name {
			return true
		}
	}
	return false
}

// Projection is the fixed projection mode every index uses.
func Projection() string { return "ALL" }

// GSINames returns the usable (non-excluded) secondary index names,
// GSI2..GSI19.
func GSINames() []string {
	names := make([]string, 0, 18)
	for i := 2; i <= 19; i++ {
		names = append(names, fmt.Sprintf("GSI%d", i))
	}
	return names
}

// HashRangeAttrNames returns the hash/range attribute names for an index:
// PK/SK for "primary", {G}PK/{G}SK for a GSI name.
func HashRangeAttrNames(indexName string) (hash, rng string) {
	if indexName == "" || indexName == "primary" {
		return "PK", "SK"
	}
	return indexName + "PK", indexName + "SK"
}
