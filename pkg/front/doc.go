// Package front defines the request, error and pagination types shared by
// the Front API client and the resource wrappers built on it.
//
// Every failed call returns an *Error. Match it by kind with errors.Is and
// the sentinel errors, or inspect it with KindOf and AsError:
//
//	_, err := tags.Get(ctx, "tag_123")
//	if errors.Is(err, front.ErrNotFound) {
//	  ...
//	}
//
// List endpoints answer with {"_results": [...], "_pagination": {"next": ...}}.
// ListPages and Resource.List return the first Page; the rest are fetched on
// demand by Page.NextPage, Page.Pages or Page.All.
package front
