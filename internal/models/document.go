package models

// Unknown is the catch-all category for failed or unrecognised classifications.
const Unknown = "Unknown"

// DefaultCategories is the fixed category enumeration used when none is configured.
var DefaultCategories = []string{
	"Deep Learning",
	"Computer Vision",
	"Natural Language Processing",
	"Reinforcement Learning",
	"Optimization",
}

// Document is a handle to one source file discovered on disk.
type Document struct {
	Path     string
	Filename string
}

// ExtractedRecord is the title and leading text fragment taken from a Document.
type ExtractedRecord struct {
	Title    string
	Fragment string
}

// Row is one classified document as written to a category table.
type Row struct {
	Title    string
	Fragment string
	Category string
	Filename string
}

// Columns is the header shared by every category table.
var Columns = []string{"Title", "Abstract", "Category", "PDF File"}

// Record returns the row in column order.
func (r Row) Record() []string {
	return []string{r.Title, r.Fragment, r.Category, r.Filename}
}
