package core

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a mapping from attribute name to value.
type Item map[string]AttributeValue

// Clone deep-copies the item.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v.Clone()
	}
	return out
}

// PathSegment is one step of a document path: either a map-key step
// (IsIndex == false) or a list-index step (IsIndex == true).
type PathSegment struct {
	Name    string
	Idx     int
	IsIndex bool
}

// Path is a document path: attribute(name) | index(n), composed left to
// right, e.g. "a.b[0]" is [{Name:"a"},{Name:"b"},{Idx:0,IsIndex:true}].
type Path []PathSegment

func (p Path) String() string {
	s := ""
	for i, seg := range p {
		if seg.IsIndex {
			s += fmt.Sprintf("[%d]", seg.Idx)
		} else {
			if i > 0 {
				s += "."
			}
			s += seg.Name
		}
	}
	return s
}

// TopLevelAttr reports the leading attribute name of the path.
func (p Path) TopLevelAttr() string {
	if len(p) == 0 {
		return ""
	}
	return p[0].Name
}

// Get resolves a path against the item, returning Missing if any step does
// not exist.
func (it Item) Get(path Path) AttributeValue {
	if len(path) == 0 {
		return Missing
	}
	v, ok := it[path[0].Name]
	if !ok {
		return Missing
	}
	return getAt(v, path[1:])
}

func getAt(v AttributeValue, rest Path) AttributeValue {
	if len(rest) == 0 {
		return v
	}
	seg := rest[0]
	if seg.IsIndex {
		if v.L == nil {
			return Missing
		}
		list := *v.L
		if seg.Idx < 0 || seg.Idx >= len(list) {
			return Missing
		}
		return getAt(list[seg.Idx], rest[1:])
	}
	if v.M == nil {
		return Missing
	}
	next, ok := (*v.M)[seg.Name]
	if !ok {
		return Missing
	}
	return getAt(next, rest[1:])
}

// Set applies a SET update-expression assignment at path. Every
// intermediate step except the final one must already exist (resolve to a
// map or list); a missing intermediate step is a validation error. A list
// index leaf may extend the list by exactly one position.
func (it Item) Set(path Path, val AttributeValue) error {
	if len(path) == 0 {
		return errors.New("empty path")
	}
	if len(path) == 1 {
		it[path[0].Name] = val
		return nil
	}
	top, ok := it[path[0].Name]
	if !ok {
		return errors.New("The document path provided in the update expression is invalid for update")
	}
	updated, err := setAt(top, path[1:], val)
	if err != nil {
		return err
	}
	it[path[0].Name] = updated
	return nil
}

func setAt(container AttributeValue, rest Path, val AttributeValue) (AttributeValue, error) {
	seg := rest[0]
	if seg.IsIndex {
		if container.L == nil {
			return AttributeValue{}, errors.New("The document path provided in the update expression is invalid for update")
		}
		list := *container.L
		if len(rest) == 1 {
			if seg.Idx < 0 || seg.Idx > len(list) {
				return AttributeValue{}, errors.New("The document path provided in the update expression is invalid for update")
			}
			if seg.Idx == len(list) {
				list = append(list, val)
			} else {
				list[seg.Idx] = val
			}
			return List(list), nil
		}
		if seg.Idx < 0 || seg.Idx >= len(list) {
			return AttributeValue{}, errors.New("The document path provided in the update expression is invalid for update")
		}
		child, err := setAt(list[seg.Idx], rest[1:], val)
		if err != nil {
			return AttributeValue{}, err
		}
		list[seg.Idx] = child
		return List(list), nil
	}

	if container.M == nil {
		return AttributeValue{}, errors.New("The document path provided in the update expression is invalid for update")
	}
	m := *container.M
	if len(rest) == 1 {
		m[seg.Name] = val
		return Map(m), nil
	}
	child, ok := m[seg.Name]
	if !ok {
		return AttributeValue{}, errors.New("The document path provided in the update expression is invalid for update")
	}
	updated, err := setAt(child, rest[1:], val)
	if err != nil {
		return AttributeValue{}, err
	}
	m[seg.Name] = updated
	return Map(m), nil
}

// Remove applies a REMOVE update-expression target. Missing intermediate
// steps are silently tolerated.
func (it Item) Remove(path Path) error {
	if len(path) == 0 {
		return errors.New("empty path")
	}
	if len(path) == 1 {
		delete(it, path[0].Name)
		return nil
	}
	top, ok := it[path[0].Name]
	if !ok {
		return nil
	}
	updated, changed, err := removeAt(top, path[1:])
	if err != nil {
		return err
	}
	if changed {
		it[path[0].Name] = updated
	}
	return nil
}

func removeAt(container AttributeValue, rest Path) (AttributeValue, bool, error) {
	seg := rest[0]
	if seg.IsIndex {
		if container.L == nil {
			return container, false, nil
		}
		list := *container.L
		if seg.Idx < 0 || seg.Idx >= len(list) {
			return container, false, nil
		}
		if len(rest) == 1 {
			list = append(list[:seg.Idx], list[seg.Idx+1:]...)
			return List(list), true, nil
		}
		child, changed, err := removeAt(list[seg.Idx], rest[1:])
		if err != nil || !changed {
			return container, false, err
		}
		list[seg.Idx] = child
		return List(list), true, nil
	}

	if container.M == nil {
		return container, false, nil
	}
	m := *container.M
	child, ok := m[seg.Name]
	if !ok {
		return container, false, nil
	}
	if len(rest) == 1 {
		delete(m, seg.Name)
		return Map(m), true, nil
	}
	updated, changed, err := removeAt(child, rest[1:])
	if err != nil || !changed {
		return container, false, err
	}
	m[seg.Name] = updated
	return Map(m), true, nil
}

// Add applies the ADD update-expression clause at a top-level attribute
// name (ADD only ever targets a bare attribute, never a nested path).
func (it Item) Add(name string, val AttributeValue) error {
	current, ok := it[name]
	if !ok {
		current = Missing
	}
	result, err := current.Add(val)
	if err != nil {
		return err
	}
	it[name] = result
	return nil
}

// Delete applies the DELETE update-expression clause at a top-level
// attribute name.
func (it Item) Delete(name string, val AttributeValue) error {
	current, ok := it[name]
	if !ok {
		current = Missing
	}
	result, err := current.Delete(val)
	if err != nil {
		return err
	}
	if IsMissing(result) {
		delete(it, name)
	} else {
		it[name] = result
	}
	return nil
}

// ToDynamoDB converts the item to the AWS SDK's wire item shape.
func (it Item) ToDynamoDB() map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(it))
	for k, v := range it {
		out[k] = v.ToDynamoDB()
	}
	return out
}

// ItemFromDynamoDB converts a wire item into an Item.
func ItemFromDynamoDB(m map[string]types.AttributeValue) Item {
	out := make(Item, len(m))
	for k, v := range m {
		out[k] = FromDynamoDB(v)
	}
	return out
}
