// Package binding extracts and validates handler arguments from an incoming
// request against a declared list of parameter specs.
//
// Specs are built once at route-registration time via the constructor
// functions ([Path], [Query], [Header], [Body]) and stay immutable afterwards;
// binding a request is then a static walk over the spec list with no
// reflection involved. Each spec names its source (path segment, query string,
// header, or JSON body), its declared type, and optional constraints.
//
// Bind collects every failure instead of stopping at the first one and
// reports them as a field-indexed [Errors] value, which the dispatcher
// serializes into the 422 validation envelope. The handler stage is never
// reached when binding fails.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
package binding
