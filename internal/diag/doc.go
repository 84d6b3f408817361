// Package diag defines the diagnostic model shared by the middle-end stages.
//
// Diagnostic is the central record: a Severity, a stable numeric Code, a
// short message, the primary source.Span, and optional secondary Notes.
// Producers collect diagnostics into a Bag, which supports capacity limits,
// deterministic sorting, and deduplication.
//
// Only user-facing findings belong here. Internal-consistency faults (broken
// preconditions inside the compiler itself) are ordinary errors carried on a
// separate path so that users are never blamed for compiler bugs.
//
// The package performs no formatting or IO; rendering lives with the caller.
package diag
