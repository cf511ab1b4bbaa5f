package core

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// NotSupportedError is raised when a request uses a method or parameter
// outside the spec manifest's supported surface, or queries an excluded
// index. Unsupported expression syntax is reported as a ValidationError.
type NotSupportedError struct {
	Method    string
	Feature   string
	Reason    string
	apiErr    smithy.GenericAPIError
}

func NewNotSupportedError(method, feature, reason string) *NotSupportedError {
	return &NotSupportedError{
		Method:  method,
		Feature: feature,
		Reason:  reason,
		apiErr: smithy.GenericAPIError{
			Code:    "NotSupported",
			Message: fmt.Sprintf("%s: %s is not supported (%s)", method, feature, reason),
		},
	}
}

func (e *NotSupportedError) Error() string   { return e.apiErr.Error() }
func (e *NotSupportedError) ErrorCode() string { return e.apiErr.ErrorCode() }

// ValidationError carries a message matching the hosted service's
// validation message text byte-for-byte where callers depend on it.
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

// ConditionalCheckFailedError wraps the AWS SDK's modeled exception.
type ConditionalCheckFailedError struct {
	inner *types.ConditionalCheckFailedException
}

func NewConditionalCheckFailedError() *ConditionalCheckFailedError {
	return &ConditionalCheckFailedError{inner: &types.ConditionalCheckFailedException{
		Message: stringPtr("The conditional request failed"),
	}}
}

func (e *ConditionalCheckFailedError) Error() string { return e.inner.ErrorMessage() }
func (e *ConditionalCheckFailedError) Unwrap() error  { return e.inner }

// TransactionCanceledError wraps the AWS SDK's modeled exception, carrying
// a per-item CancellationReason list that composes into the wire message.
type TransactionCanceledError struct {
	inner      *types.TransactionCanceledException
	Reasons    []string
	SessionID  string
}

func NewTransactionCanceledError(reasons []string, sessionID string) *TransactionCanceledError {
	msg := "Transaction cancelled, please refer cancellation reasons for specific reasons [" + joinReasons(reasons) + "]"
	cancellation := make([]types.CancellationReason, len(reasons))
	for i, r := range reasons {
		reason := r
		cancellation[i] = types.CancellationReason{Code: &reason}
	}
	return &TransactionCanceledError{
		inner: &types.TransactionCanceledException{
			Message:             &msg,
			CancellationReasons: cancellation,
		},
		Reasons:   reasons,
		SessionID: sessionID,
	}
}

func (e *TransactionCanceledError) Error() string { return e.inner.ErrorMessage() }
func (e *TransactionCanceledError) Unwrap() error  { return e.inner }

func joinReasons(reasons []string) string {
	out := ""
	for i, r := range reasons {
		if i > 0 {
			out += ", "
		}
		out += r
	}
	return out
}

func stringPtr(s string) *string { return &s }
