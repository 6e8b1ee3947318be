// Package migrate resolves the current schema from an ordered list of
// migration records.
//
// Migrations are CUE files, one migration per file, each declaring a
// sequence number and an ordered list of operations. Resolving applies
// every operation in order to an empty schema and yields the ir.Schema
// consumed by the serializer. Declaration order of collections and
// properties is established here and preserved downstream.
package migrate
