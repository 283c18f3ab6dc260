package impl

import (
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/runtime"
)

// ResponseImpl is the main resource response of a navigation. It is
// immutable once created.
type ResponseImpl struct {
	URL    string
	Status int

	page    *PageImpl
	headers map[string]string
	body    string
}

func newResponse(p *PageImpl, r map[string]any) *ResponseImpl {
	headers := map[string]string{}
	if h, ok := r["headers"].(map[string]any); ok {
		for k, v := range h {
			headers[k] = str(v)
		}
	}
	return &ResponseImpl{
		URL:     str(r["url"]),
		Status:  num(r["status"]),
		page:    p,
		headers: headers,
		body:    str(r["body"]),
	}
}

//syncgen:property
func (r *ResponseImpl) Ok() bool {
	return r.Status == 0 || (r.Status >= 200 && r.Status <= 299)
}

// Headers returns a copy of the response headers.
func (r *ResponseImpl) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// HeaderValue returns one header.
func (r *ResponseImpl) HeaderValue(name string) (string, error) {
	v, ok := r.headers[name]
	if !ok {
		return "", errors.Newf("no %s header", name)
	}
	return v, nil
}

// Text resolves with the response body.
func (r *ResponseImpl) Text() runtime.Coroutine[string] {
	return func(l *runtime.Loop) *runtime.Future[string] {
		return runtime.Resolved(l, r.body)
	}
}
