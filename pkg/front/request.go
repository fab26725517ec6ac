package front

import (
	"fmt"
	"net/url"
	"strings"
)

// Request describes one API call. Path may contain {name} placeholders that
// are filled from PathParams. A Request is not modified by the client.
type Request struct {
	Method     string
	Path       string
	PathParams map[string]string
	Query      *QueryParams
	Body       interface{}
	Headers    map[string]string
}

// ResolvedPath returns Path with every placeholder substituted and escaped.
func (r *Request) ResolvedPath() (string, error) {
	return ExpandPath(r.Path, r.PathParams)
}

// WithPageToken returns a shallow copy of r whose query carries the cursor.
func (r *Request) WithPageToken(token string) *Request {
	clone := *r
	clone.Query = r.Query.Clone().WithPageToken(token)

	return &clone
}

// ExpandPath substitutes {name} placeholders in template with path-escaped
// values from params.
func ExpandPath(template string, params map[string]string) (string, error) {
	var out strings.Builder

	rest := template
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			out.WriteString(rest)

			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			out.WriteString(rest)

			break
		}

		name := rest[start+1 : start+end]

		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s", ErrPathParamMissing, name)
		}

		out.WriteString(rest[:start])
		out.WriteString(url.PathEscape(value))
		rest = rest[start+end+1:]
	}

	return out.String(), nil
}
