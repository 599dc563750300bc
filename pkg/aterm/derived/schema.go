// Package derived builds typed wrapper views (C8) over the core aterm
// handle surface: data expressions, integers, and lists. Every wrapper
// is structurally generic — dispatch is a single symbol-identity
// comparison against the pool's reserved symbols, never a type switch
// or registry — so adding a new derived shape never touches existing
// ones.
package derived

import "github.com/mcrl2/aterm/pkg/aterm"

// Schema[T] is the generic recognize/build pair every concrete derived
// type in this package is defined from: Is reports whether a borrowed
// term has the shape T claims, and TryWrap checks the shape and produces
// the typed view. There is no unchecked wrap method, so every conversion
// runs the predicate.
type Schema[T any] struct {
	is   func(p *aterm.Pool, r aterm.TermRef) bool
	wrap func(r aterm.TermRef) T
}

// NewSchema constructs a Schema from a predicate and a constructor.
func NewSchema[T any](is func(p *aterm.Pool, r aterm.TermRef) bool, wrap func(r aterm.TermRef) T) Schema[T] {
	return Schema[T]{is: is, wrap: wrap}
}

// TryWrap returns the typed view and true if r matches the schema's
// shape, or the zero value and false otherwise.
func (s Schema[T]) TryWrap(p *aterm.Pool, r aterm.TermRef) (T, bool) {
	if !s.is(p, r) {
		var zero T
		return zero, false
	}

	return s.wrap(r), true
}

// Is reports whether r matches the schema's shape, without building the
// wrapper.
func (s Schema[T]) Is(p *aterm.Pool, r aterm.TermRef) bool { return s.is(p, r) }
