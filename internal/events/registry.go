package events

import (
	"errors"
	"strings"
	"sync"
)

var registry sync.Map

// ErrDuplicateHandler indicates a handler name is already registered.
var ErrDuplicateHandler = errors.New("handler already registered")

// Register stores a mutation handler under the given name.
func Register(name string, handler Handler) error {
	key := normalizeKey(name)
	if key == "" {
		return errors.New("handler name required")
	}
	if handler == nil {
		return errors.New("handler required")
	}
	if _, loaded := registry.LoadOrStore(key, handler); loaded {
		return ErrDuplicateHandler
	}
	return nil
}

// MustRegister panics on registration failure.
func MustRegister(name string, handler Handler) {
	if err := Register(name, handler); err != nil {
		panic(err)
	}
}

// Unregister removes a handler, mainly for tests.
func Unregister(name string) {
	registry.Delete(normalizeKey(name))
}

// Names returns the registered handler names, for diagnostics.
func Names() []string {
	var names []string
	registry.Range(func(key, _ any) bool {
		if s, ok := key.(string); ok {
			names = append(names, s)
		}
		return true
	})
	return names
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
