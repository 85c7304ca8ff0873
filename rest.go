package viewsync

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/internal/http"
)

const metadataField = "metadata"

// RESTService is a Service talking to a REST endpoint of the backend:
//
//	list    GET    {path}?PageIndex=..&PageSize=..[&{searchKey}={searchQuery}][&filters]
//	getById GET    {path}/{id}
//	create  POST   {path}
//	update  PUT    {path}
//	delete  DELETE {path}/{id}
//
// List responses carry the entities in data.{listField} next to
// data.metadata.
type RESTService[T any] struct {
	client    *http.Client
	principal Principal
	path      string
	listField string
}

// NewRESTService returns a RESTService for the endpoint at path. If
// listField is empty, the first array in a list response's data is used.
func NewRESTService[T any](client *http.Client, p Principal, path, listField string) *RESTService[T] {
	return &RESTService[T]{
		client:    client,
		principal: p,
		path:      strings.TrimSuffix(path, "/"),
		listField: listField,
	}
}

func (s *RESTService[T]) entityPath(id string) string {
	return s.path + "/" + url.PathEscape(id)
}

// List implements the Service interface
func (s *RESTService[T]) List(ctx context.Context, filters apimodel.FilterState) (*Page[T], error) {
	params, err := apimodel.ListQuery(filters)
	if err != nil {
		return nil, err
	}
	var body apimodel.Envelope[map[string]json.RawMessage]
	_, errRes, err := s.client.Get(ctx, s.path, s.principal.Token, params, &body)
	if err != nil {
		return nil, transportError(err)
	}
	if errRes != nil {
		return nil, newAPIError(errRes)
	}

	page := &Page[T]{}
	if raw, ok := body.Data[metadataField]; ok {
		if err = json.Unmarshal(raw, &page.Metadata); err != nil {
			return nil, errors.Wrap(err, "could not decode list metadata")
		}
	}
	raw, ok := s.entitiesField(body.Data)
	if !ok {
		return page, nil
	}
	if err = json.Unmarshal(raw, &page.Entities); err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", s.path)
	}
	return page, nil
}

func (s *RESTService[T]) entitiesField(data map[string]json.RawMessage) (json.RawMessage, bool) {
	if s.listField != "" {
		raw, ok := data[s.listField]
		return raw, ok
	}
	for name, raw := range data {
		if name == metadataField {
			continue
		}
		if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
			return raw, true
		}
	}
	return nil, false
}

// GetByID implements the Service interface
func (s *RESTService[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var body apimodel.Envelope[*T]
	_, errRes, err := s.client.Get(ctx, s.entityPath(id), s.principal.Token, nil, &body)
	if err != nil {
		return nil, transportError(err)
	}
	if errRes != nil {
		return nil, newAPIError(errRes)
	}
	return body.Data, nil
}

func (s *RESTService[T]) mutate(ctx context.Context, method, path string, input any) (*MutationResult[T], error) {
	var body apimodel.Envelope[*T]
	res, errRes, err := s.client.Do(ctx, method, path, s.principal.Token, nil, input, &body)
	if err != nil {
		return nil, transportError(err)
	}
	if errRes != nil {
		return nil, newAPIError(errRes)
	}
	return &MutationResult[T]{
		Status:  res.StatusCode(),
		Message: body.Message,
		Entity:  body.Data,
	}, nil
}

// Create implements the Service interface
func (s *RESTService[T]) Create(ctx context.Context, input T) (*MutationResult[T], error) {
	return s.mutate(ctx, "POST", s.path, input)
}

// Update implements the Service interface
func (s *RESTService[T]) Update(ctx context.Context, input T) (*MutationResult[T], error) {
	return s.mutate(ctx, "PUT", s.path, input)
}

// Delete implements the Service interface
func (s *RESTService[T]) Delete(ctx context.Context, id string) (*MutationResult[T], error) {
	return s.mutate(ctx, "DELETE", s.entityPath(id), nil)
}
