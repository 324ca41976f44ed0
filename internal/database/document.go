package database

import (
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The helpers below give the SQL backend the subset of MongoDB update and
// query semantics the services rely on, applied to decoded documents.

func decodeDoc(body []byte) (bson.M, error) {
	var doc bson.M
	if err := bson.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func asDoc(v any) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case map[string]any:
		return bson.M(d), true
	case bson.D:
		m := make(bson.M, len(d))
		for _, e := range d {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case bson.A:
		return []any(a), true
	case []any:
		return a, true
	}
	return nil, false
}

// matchDoc reports whether every filter entry matches doc.
func matchDoc(doc bson.M, filter Filter) bool {
	for key, want := range filter {
		if !matchPath(doc, strings.Split(key, "."), want) {
			return false
		}
	}
	return true
}

func matchPath(value any, parts []string, want any) bool {
	if arr, ok := asArray(value); ok {
		if len(parts) == 0 && valuesEqual(value, want) {
			return true
		}
		for _, elem := range arr {
			if matchPath(elem, parts, want) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return valuesEqual(value, want)
	}
	doc, ok := asDoc(value)
	if !ok {
		return false
	}
	next, ok := doc[parts[0]]
	if !ok {
		return want == nil
	}
	return matchPath(next, parts[1:], want)
}

func valuesEqual(a, b any) bool {
	if x, ok := toInt64(a); ok {
		if y, ok := toInt64(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// setPath assigns value at a dotted path, creating sub-documents as needed.
func setPath(doc bson.M, path string, value any) {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := asDoc(current[part])
		if !ok {
			next = bson.M{}
		}
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func applySet(doc bson.M, set Fields) {
	for path, value := range set {
		setPath(doc, path, value)
	}
}

func pushElem(doc bson.M, field string, elem any) {
	arr, _ := asArray(doc[field])
	doc[field] = append(bson.A(arr), elem)
}

func elemHasID(elem any, id primitive.ObjectID) bool {
	d, ok := asDoc(elem)
	if !ok {
		return false
	}
	return valuesEqual(d["_id"], id)
}

// setElem applies set to the first element of field whose _id is id.
func setElem(doc bson.M, field string, id primitive.ObjectID, set Fields) bool {
	arr, ok := asArray(doc[field])
	if !ok {
		return false
	}
	for i, elem := range arr {
		if !elemHasID(elem, id) {
			continue
		}
		d, _ := asDoc(elem)
		applySet(d, set)
		arr[i] = d
		doc[field] = bson.A(arr)
		return true
	}
	return false
}

// pullElem removes every element of field whose _id is id.
func pullElem(doc bson.M, field string, id primitive.ObjectID) bool {
	arr, ok := asArray(doc[field])
	if !ok {
		return false
	}
	kept := make(bson.A, 0, len(arr))
	for _, elem := range arr {
		if !elemHasID(elem, id) {
			kept = append(kept, elem)
		}
	}
	if len(kept) == len(arr) {
		return false
	}
	doc[field] = kept
	return true
}
