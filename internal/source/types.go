package source

type (
	// FileID uniquely identifies a document within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a document.
	FileFlags uint8
)

const (
	// FileVirtual indicates the document was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileHasBOM marks a document starting with a UTF-8 byte order mark.
	// The mark is kept in Content: documents are never rewritten.
	FileHasBOM
	// FileHasCRLF marks a document containing "\r\n" line endings.
	FileHasCRLF
)

// File captures metadata and content for a single document.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 0-based (line, column) pair. Column counts bytes from the
// start of the line.
type LineCol struct {
	Line int
	Col  int
}
