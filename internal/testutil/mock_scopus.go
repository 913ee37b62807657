package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SearchPath is the path the mock serves the Scopus Search API on.
const SearchPath = "/content/search/scopus"

// MockScopus is a configurable mock of the Scopus Search API. Affiliation
// queries are answered by start offset, REF queries by Scopus ID.
type MockScopus struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[int]MockResponse
	citing map[string]MockResponse

	requestCount      int
	pageRequests      map[int]int
	citingRequests    map[string]int
	requestTimes      []time.Time
	lastRequestHeader http.Header
	lastQuery         string
}

// NewMockScopus creates and starts a mock Scopus server.
func NewMockScopus() *MockScopus {
	mock := &MockScopus{
		pages:          make(map[int]MockResponse),
		citing:         make(map[string]MockResponse),
		pageRequests:   make(map[int]int),
		citingRequests: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockScopus) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")

	m.mu.Lock()
	m.requestCount++
	m.requestTimes = append(m.requestTimes, time.Now())
	m.lastRequestHeader = r.Header.Clone()
	m.lastQuery = r.URL.RawQuery

	var resp MockResponse
	var ok bool
	switch {
	case r.URL.Path != SearchPath:
		resp, ok = NewNotFoundResponse(), true
	case strings.HasPrefix(query, "REF(") && strings.HasSuffix(query, ")"):
		id := query[len("REF(") : len(query)-1]
		m.citingRequests[id]++
		resp, ok = m.citing[id]
	default:
		start, _ := strconv.Atoi(q.Get("start"))
		m.pageRequests[start]++
		resp, ok = m.pages[start]
	}
	m.mu.Unlock()

	if !ok {
		resp = NewJSONResponse(SearchBody(0))
	}
	headers := map[string]string{
		"X-RateLimit-Limit":     "20000",
		"X-RateLimit-Remaining": "19999",
		"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(24*time.Hour).Unix(), 10),
	}
	for key, value := range resp.Headers {
		headers[key] = value
	}
	resp.Headers = headers
	resp.write(w)
}

// URL returns the search endpoint of the mock.
func (m *MockScopus) URL() string {
	return m.server.URL + SearchPath
}

// Close shuts down the mock server.
func (m *MockScopus) Close() {
	m.server.Close()
}

// SetPage answers the affiliation query at start with entries.
func (m *MockScopus) SetPage(start, total int, entries ...EntryFixture) {
	m.SetPageResponse(start, NewJSONResponse(SearchBody(total, entries...)))
}

// SetPageResponse answers the affiliation query at start with resp.
func (m *MockScopus) SetPageResponse(start int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[start] = resp
}

// SetCiting answers REF(scopusID) with entries.
func (m *MockScopus) SetCiting(scopusID string, entries ...EntryFixture) {
	m.SetCitingResponse(scopusID, NewJSONResponse(SearchBody(len(entries), entries...)))
}

// SetCitingResponse answers REF(scopusID) with resp.
func (m *MockScopus) SetCitingResponse(scopusID string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.citing[scopusID] = resp
}

// GetRequestCount returns the total number of requests served.
func (m *MockScopus) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetPageRequests returns how often the page at start was requested.
func (m *MockScopus) GetPageRequests(start int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageRequests[start]
}

// GetCitingRequests returns how often REF(scopusID) was queried.
func (m *MockScopus) GetCitingRequests(scopusID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.citingRequests[scopusID]
}

// GetTotalCitingRequests returns the number of REF queries served.
func (m *MockScopus) GetTotalCitingRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.citingRequests {
		total += n
	}
	return total
}

// GetRequestTimes returns the arrival time of every request in order.
func (m *MockScopus) GetRequestTimes() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Time(nil), m.requestTimes...)
}

// GetLastRequestHeader returns the headers of the latest request.
func (m *MockScopus) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// GetLastQuery returns the raw query string of the latest request.
func (m *MockScopus) GetLastQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}
