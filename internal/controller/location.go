package controller

import (
	"net/url"
	"sync"
)

// Location is the address/query representation of the preferences. Replace
// swaps the current query without creating a navigable history entry.
type Location interface {
	Replace(query url.Values)
}

// Address is an in-memory Location holding the current path and query.
type Address struct {
	mu    sync.RWMutex
	path  string
	query url.Values
}

func NewAddress(path string) *Address {
	return &Address{path: path, query: url.Values{}}
}

func (a *Address) Replace(query url.Values) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.query = cloneValues(query)
}

func (a *Address) Query() url.Values {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneValues(a.query)
}

func (a *Address) String() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.query) == 0 {
		return a.path
	}
	return a.path + "?" + a.query.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
