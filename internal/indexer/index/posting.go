package index

// Document is one tokenized unit of the collection. Tokens are expected to
// be normalised already; the builder never rewrites them.
type Document struct {
	ID     string
	Tokens []string
}

type Posting struct {
	DocID     string `json:"doc_id"`
	Frequency int    `json:"tf"`
}

// PostingList is ordered by document insertion order.
type PostingList []Posting

type TermEntry struct {
	Term     string      `json:"term"`
	DocFreq  int         `json:"df"`
	Postings PostingList `json:"postings"`
}

// DocStats are the per-document statistics fixed at build time. Ordinal is
// the document's position in the input collection.
type DocStats struct {
	DocID   string  `json:"doc_id"`
	Ordinal uint32  `json:"ordinal"`
	Length  int     `json:"length"`
	MaxTF   int     `json:"max_tf"`
	Norm    float64 `json:"norm"`
}
