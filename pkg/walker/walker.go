// Package walker provides a single-pass tree-sitter traversal that dispatches
// each node to the handlers registered for its kind.
package walker

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Handler is invoked for every node of a registered kind. The context value
// carries all per-traversal state.
type Handler[C any] func(node *sitter.Node, ctx C)

// Walker holds a dispatch table from node kind to handlers.
// Registration must finish before the first Walk; after that a Walker is
// read-only and can be shared between goroutines.
type Walker[C any] struct {
	dispatch map[string][]Handler[C]
}

// New creates an empty walker.
func New[C any]() *Walker[C] {
	return &Walker[C]{dispatch: make(map[string][]Handler[C])}
}

// Register appends h to the handlers for kind. Handlers for the same kind run
// in registration order.
func (w *Walker[C]) Register(kind string, h Handler[C]) {
	w.dispatch[kind] = append(w.dispatch[kind], h)
}

// Walk visits root and its descendants depth-first in document order,
// invoking the handlers for each node before descending into its children.
// Handlers cannot prune the traversal.
func (w *Walker[C]) Walk(root *sitter.Node, ctx C) {
	if root == nil {
		return
	}
	for _, h := range w.dispatch[root.Type()] {
		h(root, ctx)
	}
	for i := range int(root.ChildCount()) {
		w.Walk(root.Child(i), ctx)
	}
}
