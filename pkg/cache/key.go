package cache

import (
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces all harvester keys in a shared Redis.
const keyPrefix = "harvest"

// Key identifies a cached response.
type Key struct {
	// Host is the API host, e.g. "api.crossref.org".
	Host string

	// Path is the request path, e.g. "/works/10.1000/xyz".
	Path string

	// Query holds the request query parameters.
	Query url.Values
}

// KeyFromURL builds a Key from a request URL.
func KeyFromURL(u *url.URL) Key {
	return Key{
		Host:  u.Host,
		Path:  u.Path,
		Query: u.Query(),
	}
}

// String renders a deterministic Redis key.
// Format: harvest:host:path:param1=val1:param2=val2
//
// Example:
//
//	harvest:api.elsevier.com:content/search/scopus:count=25:query=AFFIL(X):start=0
func (k Key) String() string {
	parts := []string{keyPrefix}

	if k.Host != "" {
		parts = append(parts, strings.ToLower(k.Host))
	}

	if path := strings.Trim(k.Path, "/"); path != "" {
		parts = append(parts, path)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
