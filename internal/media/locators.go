package media

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocatorScheme prefixes every session locator.
const LocatorScheme = "session:"

// IsSessionLocator reports whether locator was issued by a locator registry.
func IsSessionLocator(locator string) bool {
	return strings.HasPrefix(locator, LocatorScheme)
}

// locatorRegistry tracks the process-local locators issued per blob id.
type locatorRegistry struct {
	mu     sync.Mutex
	byLoc  map[string]string
	byBlob map[string]map[string]struct{}
}

func newLocatorRegistry() *locatorRegistry {
	return &locatorRegistry{
		byLoc:  map[string]string{},
		byBlob: map[string]map[string]struct{}{},
	}
}

func (r *locatorRegistry) issue(blobID string) string {
	locator := LocatorScheme + uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLoc[locator] = blobID
	set := r.byBlob[blobID]
	if set == nil {
		set = map[string]struct{}{}
		r.byBlob[blobID] = set
	}
	set[locator] = struct{}{}
	return locator
}

func (r *locatorRegistry) lookup(locator string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byLoc[locator]
	return id, ok
}

func (r *locatorRegistry) release(locator string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byLoc[locator]
	if !ok {
		return false
	}
	delete(r.byLoc, locator)
	if set := r.byBlob[id]; set != nil {
		delete(set, locator)
		if len(set) == 0 {
			delete(r.byBlob, id)
		}
	}
	return true
}

func (r *locatorRegistry) releaseBlob(blobID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byBlob[blobID]
	for locator := range set {
		delete(r.byLoc, locator)
	}
	delete(r.byBlob, blobID)
	return len(set)
}

func (r *locatorRegistry) releaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.byLoc)
	r.byLoc = map[string]string{}
	r.byBlob = map[string]map[string]struct{}{}
	return n
}

func (r *locatorRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byLoc)
}
