package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// StatusError reports a final non-2xx response for a remote source.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Remote is a source backed by an HTTP(S) URL.
type Remote struct {
	client *Client
	url    string
}

// NewRemote binds a URL to a client. Clients are safe to share between
// remotes.
func NewRemote(c *Client, rawURL string) *Remote {
	return &Remote{client: c, url: rawURL}
}

// Name returns the last path segment of the URL, or the host when the path
// is empty.
func (r *Remote) Name() string {
	u, err := url.Parse(r.url)
	if err != nil {
		return r.url
	}
	if seg := path.Base(u.Path); seg != "" && seg != "/" && seg != "." {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			return unescaped
		}
		return seg
	}
	return u.Host
}

// Open issues a GET and returns the response body. Retries follow the
// client's policy; a final non-2xx status is a *StatusError.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: r.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
