package cache

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"

	"github.com/hrdesk/viewsync/internal/utils"
)

// Key identifies one request shape. Params is the normalized serialization of
// the request parameters, so keys built from structurally equal parameters
// compare equal regardless of the order they were assembled in. Scope is the
// fingerprint of the principal the request is made for; it keeps results of
// differently authenticated requests apart.
type Key struct {
	Resource  string
	Operation string
	Params    string
	Scope     string
}

// NewKey builds a Key, normalizing params with NormalizeParams.
func NewKey(resource, operation string, params any) (Key, error) {
	p, err := NormalizeParams(params)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Resource:  resource,
		Operation: operation,
		Params:    p,
	}, nil
}

// DetailKey returns the key of a single entity fetch.
func DetailKey(resource, id string) Key {
	return Key{
		Resource:  resource,
		Operation: OperationGetByID,
		Params:    detailParams(id),
	}
}

func detailParams(id string) string {
	return url.Values{"id": {id}}.Encode()
}

// WithScope returns a copy of k bound to scope.
func (k Key) WithScope(scope string) Key {
	k.Scope = scope
	return k
}

// String returns the backing store key, "resource:operation:params:scope".
// Params are query-escaped, so they never contain the separator.
func (k Key) String() string {
	return StoreKey(k.Resource, k.Operation, k.Params, k.Scope)
}

// StorePrefix returns the Clear prefix covering all scopes of k.
func (k Key) StorePrefix() string {
	return StoreKey(k.Resource, k.Operation, k.Params, "")
}

// NormalizeParams serializes request parameters into a canonical form:
// url encoded with parameter names sorted. Structs are encoded through their
// `url` tags; values that cannot be expressed as a query are hashed.
func NormalizeParams(params any) (string, error) {
	switch p := params.(type) {
	case nil:
		return "", nil
	case string:
		v, err := url.ParseQuery(p)
		if err != nil {
			return "", errors.Wrap(err, "invalid query parameters")
		}
		return v.Encode(), nil
	case url.Values:
		return p.Encode(), nil
	case map[string]string:
		v := make(url.Values, len(p))
		for name, value := range p {
			v.Set(name, value)
		}
		return v.Encode(), nil
	case map[string]any:
		v := make(url.Values, len(p))
		for name, value := range p {
			v.Set(name, fmt.Sprint(value))
		}
		return v.Encode(), nil
	}
	rv := reflect.ValueOf(params)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		v, err := query.Values(params)
		if err != nil {
			return "", errors.Wrap(err, "error while encoding query parameters")
		}
		return v.Encode(), nil
	}
	h, err := utils.HashStruct(params)
	if err != nil {
		return "", err
	}
	return url.Values{"h": {h}}.Encode(), nil
}

// Predicate selects keys for invalidation.
type Predicate func(Key) bool

// MatchResource matches every key of resource whose operation is one of
// operations; without operations all operations match. Scopes are ignored.
func MatchResource(resource string, operations ...string) Predicate {
	ops := strset.New(operations...)
	return func(k Key) bool {
		if k.Resource != resource {
			return false
		}
		return ops.IsEmpty() || ops.Has(k.Operation)
	}
}

// MatchDetail matches the detail keys of one entity in any scope.
func MatchDetail(resource, id string) Predicate {
	params := detailParams(id)
	return func(k Key) bool {
		return k.Resource == resource && k.Operation == OperationGetByID && k.Params == params
	}
}

// MatchKey matches k in any scope.
func MatchKey(k Key) Predicate {
	return func(other Key) bool {
		return other.Resource == k.Resource && other.Operation == k.Operation && other.Params == k.Params
	}
}

// Any matches keys matched by at least one of preds.
func Any(preds ...Predicate) Predicate {
	return func(k Key) bool {
		for _, p := range preds {
			if p != nil && p(k) {
				return true
			}
		}
		return false
	}
}
