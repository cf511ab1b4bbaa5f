package ops

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ocowchun/tindex/internal/manifest"
)

// TableDescription is a read-only introspection snapshot of the engine's
// fixed schema, adapted from ddb/core.TableMetaData: that type tracks a
// dynamic, caller-defined key schema and per-table GSI settings because
// the teacher supports CreateTable; this engine's schema is fixed (PK/SK
// plus the GSI2..GSI19 convention), so there is nothing left to track
// beyond the item count and the names the manifest already fixes.
type TableDescription struct {
	TableName            string
	PartitionKeyName     string
	SortKeyName          string
	GlobalSecondaryIndex []string
	ItemCount            int
}

// DescribeTableLike reports the engine's fixed schema and current item
// count. There is no wire DescribeTableInput/Output round trip because
// there is no CreateTable to describe the result of; callers that need
// the AWS-shaped types.TableDescription can project this themselves.
func (svc *Service) DescribeTableLike() TableDescription {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return TableDescription{
		TableName:            svc.tableName,
		PartitionKeyName:     "PK",
		SortKeyName:          "SK",
		GlobalSecondaryIndex: manifest.GSINames(),
		ItemCount:            svc.state.Len(),
	}
}

// TableStatus always reports ACTIVE: the engine has no provisioning or
// creation lifecycle, so the table is always immediately usable (before
// SetTableName, requests under any TableName are accepted).
func TableStatus() types.TableStatus {
	return types.TableStatusActive
}
