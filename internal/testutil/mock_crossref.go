package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockCrossref is a configurable mock of the Crossref works endpoint.
// Unknown DOIs answer 404.
type MockCrossref struct {
	server *httptest.Server
	mu     sync.RWMutex
	works  map[string]MockResponse

	requests      map[string]int
	lastUserAgent string
	lastRawQuery  string
}

// NewMockCrossref creates and starts a mock Crossref server.
func NewMockCrossref() *MockCrossref {
	mock := &MockCrossref{
		works:    make(map[string]MockResponse),
		requests: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockCrossref) handle(w http.ResponseWriter, r *http.Request) {
	doi, isWork := strings.CutPrefix(r.URL.Path, "/works/")

	m.mu.Lock()
	m.lastUserAgent = r.UserAgent()
	m.lastRawQuery = r.URL.RawQuery
	resp, ok := MockResponse{}, false
	if isWork {
		m.requests[doi]++
		resp, ok = m.works[doi]
	}
	m.mu.Unlock()

	if !ok {
		resp = NewNotFoundResponse()
	}
	resp.write(w)
}

// URL returns the API root of the mock.
func (m *MockCrossref) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCrossref) Close() {
	m.server.Close()
}

// SetWork answers /works/{doi} with the given authors and references.
func (m *MockCrossref) SetWork(doi string, authors []AuthorFixture, references ...string) {
	m.SetWorkResponse(doi, NewJSONResponse(WorkBody(doi, authors, references...)))
}

// SetWorkResponse answers /works/{doi} with resp.
func (m *MockCrossref) SetWorkResponse(doi string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.works[doi] = resp
}

// GetRequests returns how often doi was looked up.
func (m *MockCrossref) GetRequests(doi string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[doi]
}

// GetRequestCount returns the total number of works lookups.
func (m *MockCrossref) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// GetLastUserAgent returns the User-Agent of the latest request.
func (m *MockCrossref) GetLastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUserAgent
}

// GetLastRawQuery returns the query string of the latest request.
func (m *MockCrossref) GetLastRawQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRawQuery
}
