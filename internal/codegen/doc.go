// Package codegen serializes a resolved schema IR into declarative
// builder-syntax source text.
//
// The serializer is a pure, synchronous computation over an in-memory
// ir.Schema: no I/O, no shared state. It is safe to invoke
// concurrently on independent schemas.
//
// Layers, leaf-first:
//   - value.go: scalar literals, default-value calls, option fragments
//   - attribute.go: one attribute node, recursing through records/sets
//   - collection.go: one collection (attribute tree plus rules block)
//   - module.go: the full source module (header, import, export)
//
// Errors raised by any layer propagate unchanged and abort module
// assembly with no partial output. Callers must only persist output
// after EncodeModule fully succeeds.
package codegen
