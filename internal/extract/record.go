package extract

// Record is one extracted (id, source) pair. Records are immutable once built.
type Record struct {
	ID     string
	Source string
	// File is the source file the element was declared in. It lets a sink
	// drop stale records when the file is extracted again.
	File string
}

// NewRecord derives the id and source text of el.
func NewRecord(el Element, tree SyntaxTree) Record {
	return Record{
		ID:     DeriveID(el),
		Source: Source(el, tree),
		File:   el.Position().File,
	}
}

// Format renders the record the way it appears in an output artifact.
func (r Record) Format() string {
	return "// " + r.ID + "\n" + r.Source + "\n\n"
}
