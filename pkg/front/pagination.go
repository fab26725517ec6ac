package front

import (
	"context"
	"encoding/json"
	"iter"
	"net/url"
	"sync/atomic"

	"github.com/fivetwenty-io/front-go/internal/constants"
)

// PageFetcher retrieves the raw list body for the given cursor.
type PageFetcher func(ctx context.Context, cursor string) (json.RawMessage, error)

// ItemMapper converts one raw list element into T.
type ItemMapper[T any] func(raw json.RawMessage) (T, error)

// Paginator holds what is needed to fetch and decode further pages. It is
// copied by value into every Page, so pages never reference one another.
type Paginator[T any] struct {
	Fetch   PageFetcher
	MapItem ItemMapper[T]
	Logger  Logger
}

// Page is one batch of list results.
type Page[T any] struct {
	Items []T
	// NextCursor is the page_token of the following page, empty when exhausted.
	NextCursor string

	paginator Paginator[T]
}

type listEnvelope struct {
	Results    *[]json.RawMessage `json:"_results"`
	Pagination json.RawMessage    `json:"_pagination"`
}

// nextLink returns _pagination.next when it is a string. malformed reports a
// _pagination or next of any other non-null shape.
func (e listEnvelope) nextLink() (next string, malformed bool) {
	var pagination struct {
		Next interface{} `json:"next"`
	}

	if len(e.Pagination) == 0 || string(e.Pagination) == "null" {
		return "", false
	}

	if json.Unmarshal(e.Pagination, &pagination) != nil {
		return "", true
	}

	switch value := pagination.Next.(type) {
	case nil:
		return "", false
	case string:
		return value, false
	default:
		return "", true
	}
}

// DecodeInto returns an ItemMapper that unmarshals each element into T.
func DecodeInto[T any]() ItemMapper[T] {
	return func(raw json.RawMessage) (T, error) {
		var item T

		err := json.Unmarshal(raw, &item)
		if err != nil {
			return item, NewValidationError("decoding list item: "+err.Error(), raw)
		}

		return item, nil
	}
}

// FirstPage builds the first Page from an already fetched list body.
func (p Paginator[T]) FirstPage(body json.RawMessage) (*Page[T], error) {
	return p.buildPage(body)
}

func (p Paginator[T]) buildPage(body json.RawMessage) (*Page[T], error) {
	var envelope listEnvelope

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, NewValidationError("decoding list response: "+err.Error(), body)
	}

	if envelope.Results == nil {
		return nil, NewValidationError("list response is missing _results", body)
	}

	items := make([]T, 0, len(*envelope.Results))

	for _, raw := range *envelope.Results {
		item, err := p.MapItem(raw)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	page := &Page[T]{
		Items:     items,
		paginator: p,
	}

	next, malformed := envelope.nextLink()
	if malformed {
		LoggerOrNop(p.Logger).Warn("pagination stopped: malformed _pagination", map[string]interface{}{
			"pagination": string(envelope.Pagination),
		})
	}

	if next != "" {
		cursor, ok := CursorFromNextLink(next)
		if ok {
			page.NextCursor = cursor
		} else {
			LoggerOrNop(p.Logger).Warn("pagination stopped: next link has no usable page_token", map[string]interface{}{
				"next": next,
			})
		}
	}

	return page, nil
}

// CursorFromNextLink extracts the page_token query parameter from an
// absolute or relative next link. It reports false when the link cannot be
// parsed or carries no token.
func CursorFromNextLink(next string) (string, bool) {
	if next == "" {
		return "", false
	}

	base, err := url.Parse(constants.DefaultBaseURL)
	if err != nil {
		return "", false
	}

	ref, err := url.Parse(next)
	if err != nil {
		return "", false
	}

	token := base.ResolveReference(ref).Query().Get(constants.PageTokenParam)
	if token == "" {
		return "", false
	}

	return token, true
}

// HasNext reports whether another page can be fetched.
func (pg *Page[T]) HasNext() bool {
	return pg.NextCursor != ""
}

// NextPage fetches the following page. It returns nil, nil without any
// request when there is no next cursor.
func (pg *Page[T]) NextPage(ctx context.Context) (*Page[T], error) {
	if !pg.HasNext() {
		return nil, nil //nolint:nilnil // nil page signals exhaustion
	}

	body, err := pg.paginator.Fetch(ctx, pg.NextCursor)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, nil //nolint:nilnil // empty body ends pagination
	}

	return pg.paginator.buildPage(body)
}

// Pages returns a forward-only sequence starting at pg. The sequence is
// single-use: ranging over it a second time yields nothing. Pages already
// yielded are not retained.
func (pg *Page[T]) Pages(ctx context.Context) iter.Seq2[*Page[T], error] {
	var used atomic.Bool

	return func(yield func(*Page[T], error) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}

		current := pg
		for current != nil {
			if !yield(current, nil) {
				return
			}

			next, err := current.NextPage(ctx)
			if err != nil {
				yield(nil, err)

				return
			}

			current = next
		}
	}
}

// All returns a forward-only, single-use sequence over every item from pg onward.
func (pg *Page[T]) All(ctx context.Context) iter.Seq2[T, error] {
	pages := pg.Pages(ctx)

	return func(yield func(T, error) bool) {
		for page, err := range pages {
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// PaginationOptions bounds bulk fetching helpers.
type PaginationOptions struct {
	// MaxPages stops after this many pages. Zero means no limit.
	MaxPages int
}

// DefaultPaginationOptions returns default pagination options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		MaxPages: constants.DefaultMaxPages,
	}
}

// FetchAll collects the items of pg and every following page.
func FetchAll[T any](ctx context.Context, pg *Page[T], options *PaginationOptions) ([]T, error) {
	if options == nil {
		options = DefaultPaginationOptions()
	}

	var (
		all   []T
		count int
	)

	for page, err := range pg.Pages(ctx) {
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)
		count++

		if options.MaxPages > 0 && count >= options.MaxPages {
			break
		}
	}

	return all, nil
}

// PageResult is one element of a StreamPages channel.
type PageResult[T any] struct {
	Items []T
	Err   error
}

// StreamPages delivers pg and every following page on a channel. The
// channel is closed after the last page, an error, or ctx cancellation.
func StreamPages[T any](ctx context.Context, pg *Page[T]) <-chan PageResult[T] {
	results := make(chan PageResult[T], constants.StreamBufferSize)

	go func() {
		defer close(results)

		for page, err := range pg.Pages(ctx) {
			result := PageResult[T]{Err: err}
			if page != nil {
				result.Items = page.Items
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}

			if err != nil {
				return
			}
		}
	}()

	return results
}

// PageIterator walks items one at a time across pages.
type PageIterator[T any] struct {
	ctx     context.Context //nolint:containedctx // iterator is bound to one listing
	current *Page[T]
	index   int
	err     error
}

// NewPageIterator creates an item iterator starting at the first item of pg.
func NewPageIterator[T any](ctx context.Context, pg *Page[T]) *PageIterator[T] {
	return &PageIterator[T]{ctx: ctx, current: pg}
}

// HasNext reports whether Next will return an item. It may fetch pages,
// skipping empty intermediate ones.
func (it *PageIterator[T]) HasNext() bool {
	for it.err == nil && it.current != nil {
		if it.index < len(it.current.Items) {
			return true
		}

		next, err := it.current.NextPage(it.ctx)
		if err != nil {
			it.err = err

			return true
		}

		it.current = next
		it.index = 0
	}

	return it.err != nil
}

// Next returns the next item.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if !it.HasNext() {
		return zero, ErrNoMoreItems
	}

	if it.err != nil {
		err := it.err
		it.err = nil
		it.current = nil

		return zero, err
	}

	item := it.current.Items[it.index]
	it.index++

	return item, nil
}

// ForEach calls fn for each remaining item, stopping at the first error.
func (it *PageIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListPages executes req and wires the result into a Paginator whose later
// fetches repeat req with the page_token set.
func ListPages[T any](ctx context.Context, exec Executor, req *Request, mapItem ItemMapper[T]) (*Page[T], error) {
	body, err := exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	paginator := Paginator[T]{
		Fetch: func(ctx context.Context, cursor string) (json.RawMessage, error) {
			return exec.Execute(ctx, req.WithPageToken(cursor))
		},
		MapItem: mapItem,
		Logger:  loggerOf(exec),
	}

	return paginator.FirstPage(body)
}

type loggerProvider interface {
	Logger() Logger
}

func loggerOf(exec Executor) Logger {
	if lp, ok := exec.(loggerProvider); ok {
		return lp.Logger()
	}

	return NopLogger{}
}
