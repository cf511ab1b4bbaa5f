// Package core defines the item and attribute-value model shared by every
// other package in this module.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AttributeValue is a tagged union mirroring the wire AttributeValue shape:
// exactly one field is non-nil at a time.
type AttributeValue struct {
	B    *[]byte
	BS   *[][]byte
	Bool *bool
	L    *[]AttributeValue
	M    *map[string]AttributeValue
	N    *string
	NS   *[]string
	NULL *bool
	S    *string
	SS   *[]string
}

// Missing is the sentinel value produced when a document path does not
// resolve to anything. It is distinct from a NULL attribute value.
var Missing = AttributeValue{}

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v AttributeValue) bool {
	return v == Missing
}

func S(s string) AttributeValue   { return AttributeValue{S: &s} }
func N(s string) AttributeValue   { return AttributeValue{N: &s} }
func Bool(b bool) AttributeValue  { return AttributeValue{Bool: &b} }
func Null() AttributeValue        { t := true; return AttributeValue{NULL: &t} }
func List(vs []AttributeValue) AttributeValue {
	return AttributeValue{L: &vs}
}
func Map(m map[string]AttributeValue) AttributeValue {
	return AttributeValue{M: &m}
}

// Type returns the DynamoDB-style single-letter/short type tag.
func (a AttributeValue) Type() string {
	switch {
	case a.B != nil:
		return "B"
	case a.BS != nil:
		return "BS"
	case a.Bool != nil:
		return "BOOL"
	case a.L != nil:
		return "L"
	case a.M != nil:
		return "M"
	case a.N != nil:
		return "N"
	case a.NS != nil:
		return "NS"
	case a.NULL != nil:
		return "NULL"
	case a.S != nil:
		return "S"
	case a.SS != nil:
		return "SS"
	}
	return ""
}

// Size implements the expression engine's size() function.
func (a AttributeValue) Size() (int, error) {
	switch {
	case a.B != nil:
		return len(*a.B), nil
	case a.BS != nil:
		return len(*a.BS), nil
	case a.S != nil:
		return len(*a.S), nil
	case a.SS != nil:
		return len(*a.SS), nil
	case a.NS != nil:
		return len(*a.NS), nil
	case a.L != nil:
		return len(*a.L), nil
	case a.M != nil:
		return len(*a.M), nil
	default:
		return 0, fmt.Errorf("size() is not supported for type %s", a.Type())
	}
}

// Compare orders two values of the same underlying type. Numbers compare
// numerically with a small epsilon, strings and binaries lexicographically.
func (a AttributeValue) Compare(other AttributeValue) (int, error) {
	switch {
	case a.N != nil:
		if other.N == nil {
			return 0, errors.New("cannot compare N to non-number")
		}
		numA, err := strconv.ParseFloat(*a.N, 64)
		if err != nil {
			return 0, err
		}
		numB, err := strconv.ParseFloat(*other.N, 64)
		if err != nil {
			return 0, err
		}
		const epsilon = 0.0001
		if math.Abs(numA-numB) < epsilon {
			return 0, nil
		} else if numA > numB {
			return 1, nil
		}
		return -1, nil
	case a.S != nil:
		if other.S == nil {
			return 0, errors.New("cannot compare S to non-string")
		}
		return strings.Compare(*a.S, *other.S), nil
	case a.B != nil:
		if other.B == nil {
			return 0, errors.New("cannot compare B to non-binary")
		}
		return bytes.Compare(*a.B, *other.B), nil
	default:
		return 0, fmt.Errorf("cannot order values of type %s", a.Type())
	}
}

// Equal reports deep equality between a and other.
func (a AttributeValue) Equal(other AttributeValue) bool {
	if a.Type() != other.Type() {
		return false
	}
	switch {
	case a.B != nil:
		return bytes.Equal(*a.B, *other.B)
	case a.BS != nil:
		return equalByteSets(*a.BS, *other.BS)
	case a.Bool != nil:
		return *a.Bool == *other.Bool
	case a.L != nil:
		if len(*a.L) != len(*other.L) {
			return false
		}
		for i, v := range *a.L {
			if !v.Equal((*other.L)[i]) {
				return false
			}
		}
		return true
	case a.M != nil:
		if len(*a.M) != len(*other.M) {
			return false
		}
		for k, v := range *a.M {
			v2, ok := (*other.M)[k]
			if !ok || !v.Equal(v2) {
				return false
			}
		}
		return true
	case a.N != nil:
		return *a.N == *other.N
	case a.NS != nil:
		return equalStringSets(*a.NS, *other.NS)
	case a.NULL != nil:
		return *a.NULL == *other.NULL
	case a.S != nil:
		return *a.S == *other.S
	case a.SS != nil:
		return equalStringSets(*a.SS, *other.SS)
	}
	return false
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[string]bool, len(a))
	for _, v := range a {
		am[v] = true
	}
	for _, v := range b {
		if !am[v] {
			return false
		}
	}
	return true
}

func equalByteSets(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if bytes.Equal(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Clone deep-copies the value.
func (a AttributeValue) Clone() AttributeValue {
	switch {
	case a.B != nil:
		b := append([]byte(nil), *a.B...)
		return AttributeValue{B: &b}
	case a.BS != nil:
		bs := make([][]byte, len(*a.BS))
		for i, v := range *a.BS {
			bs[i] = append([]byte(nil), v...)
		}
		return AttributeValue{BS: &bs}
	case a.Bool != nil:
		b := *a.Bool
		return AttributeValue{Bool: &b}
	case a.L != nil:
		l := make([]AttributeValue, len(*a.L))
		for i, v := range *a.L {
			l[i] = v.Clone()
		}
		return AttributeValue{L: &l}
	case a.M != nil:
		m := make(map[string]AttributeValue, len(*a.M))
		for k, v := range *a.M {
			m[k] = v.Clone()
		}
		return AttributeValue{M: &m}
	case a.N != nil:
		n := *a.N
		return AttributeValue{N: &n}
	case a.NS != nil:
		ns := append([]string(nil), *a.NS...)
		return AttributeValue{NS: &ns}
	case a.NULL != nil:
		n := *a.NULL
		return AttributeValue{NULL: &n}
	case a.S != nil:
		s := *a.S
		return AttributeValue{S: &s}
	case a.SS != nil:
		ss := append([]string(nil), *a.SS...)
		return AttributeValue{SS: &ss}
	}
	return AttributeValue{}
}

// Add implements the ADD update-expression clause (numeric sum, set union).
func (a AttributeValue) Add(val AttributeValue) (AttributeValue, error) {
	switch {
	case val.N != nil:
		if a == Missing {
			return val, nil
		}
		if a.N == nil {
			return AttributeValue{}, errors.New("An operand in the update expression has an incorrect data type")
		}
		numA, err := strconv.ParseFloat(*a.N, 64)
		if err != nil {
			return AttributeValue{}, err
		}
		numB, err := strconv.ParseFloat(*val.N, 64)
		if err != nil {
			return AttributeValue{}, err
		}
		return N(strconv.FormatFloat(numA+numB, 'f', -1, 64)), nil
	case val.SS != nil:
		if a == Missing {
			return val, nil
		}
		if a.SS == nil {
			return AttributeValue{}, errors.New("An operand in the update expression has an incorrect data type")
		}
		return AttributeValue{SS: unionStrings(*a.SS, *val.SS)}, nil
	case val.NS != nil:
		if a == Missing {
			return val, nil
		}
		if a.NS == nil {
			return AttributeValue{}, errors.New("An operand in the update expression has an incorrect data type")
		}
		return AttributeValue{NS: unionStrings(*a.NS, *val.NS)}, nil
	default:
		return AttributeValue{}, fmt.Errorf("Incorrect operand type for operator or function; operator: ADD, operand type: %s", val.Type())
	}
}

// Delete implements the DELETE update-expression clause (set difference).
func (a AttributeValue) Delete(val AttributeValue) (AttributeValue, error) {
	switch {
	case val.SS != nil:
		if a == Missing {
			return Missing, nil
		}
		if a.SS == nil {
			return AttributeValue{}, errors.New("An operand in the update expression has an incorrect data type")
		}
		return AttributeValue{SS: differenceStrings(*a.SS, *val.SS)}, nil
	case val.NS != nil:
		if a == Missing {
			return Missing, nil
		}
		if a.NS == nil {
			return AttributeValue{}, errors.New("An operand in the update expression has an incorrect data type")
		}
		return AttributeValue{NS: differenceStrings(*a.NS, *val.NS)}, nil
	default:
		return AttributeValue{}, fmt.Errorf("Incorrect operand type for operator or function; operator: DELETE, operand type: %s", val.Type())
	}
}

func unionStrings(a, b []string) *[]string {
	set := make(map[string]bool)
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return &out
}

func differenceStrings(a, b []string) *[]string {
	remove := make(map[string]bool)
	for _, v := range b {
		remove[v] = true
	}
	out := make([]string, 0, len(a))
	for _, v := range a {
		if !remove[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return &out
}

// ToDynamoDB converts to the AWS SDK's wire AttributeValue union.
func (a AttributeValue) ToDynamoDB() types.AttributeValue {
	switch {
	case a.B != nil:
		return &types.AttributeValueMemberB{Value: *a.B}
	case a.BS != nil:
		return &types.AttributeValueMemberBS{Value: *a.BS}
	case a.Bool != nil:
		return &types.AttributeValueMemberBOOL{Value: *a.Bool}
	case a.L != nil:
		vals := make([]types.AttributeValue, len(*a.L))
		for i, v := range *a.L {
			vals[i] = v.ToDynamoDB()
		}
		return &types.AttributeValueMemberL{Value: vals}
	case a.M != nil:
		vals := make(map[string]types.AttributeValue, len(*a.M))
		for k, v := range *a.M {
			vals[k] = v.ToDynamoDB()
		}
		return &types.AttributeValueMemberM{Value: vals}
	case a.N != nil:
		return &types.AttributeValueMemberN{Value: *a.N}
	case a.NS != nil:
		return &types.AttributeValueMemberNS{Value: *a.NS}
	case a.NULL != nil:
		return &types.AttributeValueMemberNULL{Value: *a.NULL}
	case a.S != nil:
		return &types.AttributeValueMemberS{Value: *a.S}
	case a.SS != nil:
		return &types.AttributeValueMemberSS{Value: *a.SS}
	}
	return &types.AttributeValueMemberNULL{Value: true}
}

// FromDynamoDB converts from the AWS SDK's wire AttributeValue union.
func FromDynamoDB(val types.AttributeValue) AttributeValue {
	switch v := val.(type) {
	case *types.AttributeValueMemberB:
		b := v.Value
		return AttributeValue{B: &b}
	case *types.AttributeValueMemberBS:
		bs := v.Value
		return AttributeValue{BS: &bs}
	case *types.AttributeValueMemberBOOL:
		b := v.Value
		return AttributeValue{Bool: &b}
	case *types.AttributeValueMemberL:
		list := make([]AttributeValue, len(v.Value))
		for i, e := range v.Value {
			list[i] = FromDynamoDB(e)
		}
		return AttributeValue{L: &list}
	case *types.AttributeValueMemberM:
		m := make(map[string]AttributeValue, len(v.Value))
		for k, e := range v.Value {
			m[k] = FromDynamoDB(e)
		}
		return AttributeValue{M: &m}
	case *types.AttributeValueMemberN:
		n := v.Value
		return AttributeValue{N: &n}
	case *types.AttributeValueMemberNS:
		ns := v.Value
		return AttributeValue{NS: &ns}
	case *types.AttributeValueMemberNULL:
		n := v.Value
		return AttributeValue{NULL: &n}
	case *types.AttributeValueMemberS:
		s := v.Value
		return AttributeValue{S: &s}
	case *types.AttributeValueMemberSS:
		ss := v.Value
		return AttributeValue{SS: &ss}
	default:
		panic("unknown attribute value type")
	}
}
