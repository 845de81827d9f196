package api

import (
	"bytes"
	"io"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
)

// mockDoer implements HTTPDoer and records every request it sees
type mockDoer struct {
	mu       sync.Mutex
	doFunc   func(req *fhttp.Request) (*fhttp.Response, error)
	requests []*fhttp.Request
	bodies   [][]byte
}

func (m *mockDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	fn := m.doFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return newResponse(200, `{}`), nil
}

func (m *mockDoer) last() (*fhttp.Request, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil, nil
	}
	return m.requests[len(m.requests)-1], m.bodies[len(m.bodies)-1]
}

func (m *mockDoer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// respondWith returns a doer that always answers with the given status and body
func respondWith(status int, body string) *mockDoer {
	return &mockDoer{doFunc: func(req *fhttp.Request) (*fhttp.Response, error) {
		return newResponse(status, body), nil
	}}
}

func newResponse(status int, body string) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(fhttp.Header),
	}
}
