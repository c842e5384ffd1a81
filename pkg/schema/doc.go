// Package schema describes the declarative field metadata that drives every
// entity screen: which keys a record carries, how each key is labelled, which
// input kind renders it and where dynamic options come from. A Schema is built
// once; the per-kind dispatch entry (widget, validation rule, value codec) is
// resolved at build time so renderers and controllers never re-interpret raw
// kind strings. Records fetched from a collection are decoded against the
// schema into a structured Record that keeps unknown keys for round-tripping
// without ever rendering them.
package schema
