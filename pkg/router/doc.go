// Package router holds the route table and the request-side types that flow
// through it: the per-request [Context], the handler [Response], the
// [Middleware] onion, and the error envelope.
//
// Routes are registered before serving starts and the [Table] is read-only
// afterwards, so it is shared across connections without locking. Matching
// is a linear scan in registration order: the first registered route whose
// pattern matches wins. Typed capture segments ({id:int}, {ratio:float})
// coerce during matching, and a segment that fails coercion makes the whole
// candidate a non-match, so a differently-typed overlapping route registered
// later can still win. A path that only matches under other methods resolves
// to [MethodNotAllowedError] carrying the Allow set, distinguishable from
// plain [ErrNotFound].
//
// Middleware composes in the fixed scope order global → group → endpoint →
// handler. Composition happens per dispatch from the immutable middleware
// lists: each stage receives a single-use continuation, so a middleware that
// calls next twice fails fast instead of re-running inner stages.
package router
