package source

// FileID uniquely identifies a source file within a FileSet.
type FileID uint32

// NoFile marks spans that carry no real source location, such as
// compiler-synthesized declarations.
const NoFile FileID = 0
