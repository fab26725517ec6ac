package front

import (
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/front-go/internal/constants"
)

// Sort orders accepted by list endpoints.
const (
	SortAscending  = "asc"
	SortDescending = "desc"
)

// QueryParams holds list options. Zero values are omitted from the query.
type QueryParams struct {
	Limit     int
	PageToken string
	SortBy    string
	SortOrder string
	// Filters are encoded as q[<key>] with one value per entry.
	Filters map[string][]string
	// Params are passed through verbatim; empty values are dropped.
	Params map[string]string
}

// NewQueryParams creates an empty set of query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
		Params:  make(map[string]string),
	}
}

// WithLimit sets the page size.
func (q *QueryParams) WithLimit(limit int) *QueryParams {
	q.Limit = limit

	return q
}

// WithPageToken sets the pagination cursor.
func (q *QueryParams) WithPageToken(token string) *QueryParams {
	q.PageToken = token

	return q
}

// WithSort sets the sort field and order.
func (q *QueryParams) WithSort(field, order string) *QueryParams {
	q.SortBy = field
	q.SortOrder = order

	return q
}

// WithFilter appends values to a q[<key>] filter.
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// WithParam sets a raw query parameter.
func (q *QueryParams) WithParam(key, value string) *QueryParams {
	if q.Params == nil {
		q.Params = make(map[string]string)
	}

	q.Params[key] = value

	return q
}

// Clone returns a deep copy so per-page cursors never leak into the caller's params.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	clone := *q
	clone.Filters = make(map[string][]string, len(q.Filters))

	for k, v := range q.Filters {
		clone.Filters[k] = append([]string(nil), v...)
	}

	clone.Params = make(map[string]string, len(q.Params))
	for k, v := range q.Params {
		clone.Params[k] = v
	}

	return &clone
}

// ToValues converts the parameters to url.Values, skipping absent values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	for key, value := range q.Params {
		if value != "" {
			values.Set(key, value)
		}
	}

	for key, filter := range q.Filters {
		for _, v := range filter {
			if v != "" {
				values.Add("q["+key+"]", v)
			}
		}
	}

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	if q.PageToken != "" {
		values.Set(constants.PageTokenParam, q.PageToken)
	}

	if q.SortBy != "" {
		values.Set("sort_by", q.SortBy)
	}

	if q.SortOrder != "" {
		values.Set("sort_order", q.SortOrder)
	}

	return values
}
