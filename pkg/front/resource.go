package front

import (
	"context"
	"encoding/json"
	"net/http"
)

// Resource is a typed helper for a standard collection endpoint such as
// /tags with items at /tags/{id}. Resource wrappers embed or hold one and
// share the client passed to NewResource.
type Resource[T any] struct {
	exec           Executor
	collectionPath string
	itemPath       string
	mapItem        ItemMapper[T]
}

// NewResource creates a helper over collectionPath. itemPath must contain an
// {id} placeholder. Items are decoded with encoding/json unless WithMapper is used.
func NewResource[T any](exec Executor, collectionPath, itemPath string) *Resource[T] {
	return &Resource[T]{
		exec:           exec,
		collectionPath: collectionPath,
		itemPath:       itemPath,
		mapItem:        DecodeInto[T](),
	}
}

// WithMapper replaces the per-item constructor.
func (r *Resource[T]) WithMapper(mapItem ItemMapper[T]) *Resource[T] {
	r.mapItem = mapItem

	return r
}

// List fetches the first page; later pages repeat the query with page_token.
func (r *Resource[T]) List(ctx context.Context, params *QueryParams) (*Page[T], error) {
	return ListPages(ctx, r.exec, &Request{
		Method: http.MethodGet,
		Path:   r.collectionPath,
		Query:  params,
	}, r.mapItem)
}

// ListAll fetches every page and returns the concatenated items.
func (r *Resource[T]) ListAll(ctx context.Context, params *QueryParams, options *PaginationOptions) ([]T, error) {
	page, err := r.List(ctx, params)
	if err != nil {
		return nil, err
	}

	return FetchAll(ctx, page, options)
}

// ListWithoutPagination maps the _results of a single, unpaginated list call.
func (r *Resource[T]) ListWithoutPagination(ctx context.Context, params *QueryParams) ([]T, error) {
	body, err := r.exec.Execute(ctx, &Request{
		Method: http.MethodGet,
		Path:   r.collectionPath,
		Query:  params,
	})
	if err != nil {
		return nil, err
	}

	page, err := Paginator[T]{MapItem: r.mapItem, Logger: loggerOf(r.exec)}.FirstPage(body)
	if err != nil {
		return nil, err
	}

	return page.Items, nil
}

// Get fetches one item by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return r.one(ctx, &Request{
		Method:     http.MethodGet,
		Path:       r.itemPath,
		PathParams: map[string]string{"id": id},
	})
}

// Create posts body to the collection and returns the created item.
func (r *Resource[T]) Create(ctx context.Context, body interface{}) (T, error) {
	return r.one(ctx, &Request{
		Method: http.MethodPost,
		Path:   r.collectionPath,
		Body:   body,
	})
}

// Update patches the item. The API answers with 204, so nothing is returned.
func (r *Resource[T]) Update(ctx context.Context, id string, body interface{}) error {
	_, err := r.exec.Execute(ctx, &Request{
		Method:     http.MethodPatch,
		Path:       r.itemPath,
		PathParams: map[string]string{"id": id},
		Body:       body,
	})

	return err
}

// Delete removes the item.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.exec.Execute(ctx, &Request{
		Method:     http.MethodDelete,
		Path:       r.itemPath,
		PathParams: map[string]string{"id": id},
	})

	return err
}

func (r *Resource[T]) one(ctx context.Context, req *Request) (T, error) {
	var zero T

	body, err := r.exec.Execute(ctx, req)
	if err != nil {
		return zero, err
	}

	if len(body) == 0 || string(body) == "null" {
		return zero, NewValidationError("response is missing data", body)
	}

	return r.mapItem(json.RawMessage(body))
}
