package searchlist

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrCanceled is returned when the caller's context ends while the
	// operation waits for admission. The returned error also wraps the
	// context's error, so errors.Is(err, context.Canceled) works as well.
	ErrCanceled = errors.New("searchlist: admission canceled")

	// ErrNilItem is the panic value (wrapped) for a nil item. Passing one is
	// a programming error; the list is left untouched.
	ErrNilItem = errors.New("searchlist: nil item")
)

func canceled(r Role, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrCanceled, r, cause)
}

// mustItem panics if item is a nil pointer, channel or interface.
func mustItem[T comparable](op string, item T) {
	if isNil(any(item)) {
		panic(fmt.Errorf("%w passed to %s", ErrNilItem, op))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
