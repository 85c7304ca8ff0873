package viewsync

import (
	"context"

	"github.com/hrdesk/viewsync/apimodel"
)

// Page is one page of a list
type Page[T any] struct {
	Entities []T               `json:"entities" msgpack:"entities"`
	Metadata apimodel.Metadata `json:"metadata" msgpack:"metadata"`
}

// MutationResult is the response of a create, update or delete
type MutationResult[T any] struct {
	Status  int
	Message string
	Entity  *T
}

// Service is the backend of one resource, bound to one principal.
// GetByID returns a nil entity without error if the backend answered
// without data; a 404 is reported as an error matching ErrNotFound.
type Service[T any] interface {
	List(ctx context.Context, filters apimodel.FilterState) (*Page[T], error)
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, input T) (*MutationResult[T], error)
	Update(ctx context.Context, input T) (*MutationResult[T], error)
	Delete(ctx context.Context, id string) (*MutationResult[T], error)
}
