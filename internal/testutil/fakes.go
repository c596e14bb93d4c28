package testutil

import (
	"context"
	"fmt"
	"sync"
)

// FakeLinker serves linker parameters from a nested map:
// namespace -> key -> value.
type FakeLinker map[string]map[string]any

// Get implements macro.LinkerReader.
func (f FakeLinker) Get(namespace, key string) (any, bool) {
	v, ok := f[namespace][key]
	return v, ok
}

// FakeCookies serves cookies from a map.
type FakeCookies map[string]string

// ReadCookie implements macro.CookieReader.
func (f FakeCookies) ReadCookie(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// FakeVideo answers video state queries from a map of element id to
// property values.
//
// When Gate is non-nil every query blocks until Gate is closed, which lets a
// test observe an expansion while it is still pending.
type FakeVideo struct {
	Elements map[string]map[string]any
	Gate     chan struct{}

	mu      sync.Mutex
	queries []string
}

// Query implements macro.VideoState.
func (f *FakeVideo) Query(ctx context.Context, elementID, property string) (any, error) {
	f.mu.Lock()
	f.queries = append(f.queries, elementID+"."+property)
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	props, ok := f.Elements[elementID]
	if !ok {
		return nil, fmt.Errorf("no video element %q", elementID)
	}
	v, ok := props[property]
	if !ok {
		return nil, fmt.Errorf("video element %q has no property %q", elementID, property)
	}
	return v, nil
}

// Queries returns the element.property pairs queried so far.
func (f *FakeVideo) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
