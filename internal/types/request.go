package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request represents a page to be fetched.
type Request struct {
	// URL is the target URL to fetch, query included.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Tag categorizes this request ("listing" or "product").
	Tag string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a GET request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	return NewRequestWithQuery(rawURL, nil)
}

// NewRequestWithQuery creates a GET request for rawURL with the query
// parameters merged into any the URL already carries.
func NewRequestWithQuery(rawURL string, query url.Values) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}

	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			q.Del(key)
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
