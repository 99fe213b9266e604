// Package index builds the immutable inverted index the ranker scores
// against: term -> document -> term frequency, per-term document frequency
// and idf, and per-document length, maximum term frequency and TF-IDF norm.
//
// An Index is never mutated after Build returns, so it may be shared by any
// number of goroutines without locking.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

type Index struct {
	postings map[string]map[string]int
	bitmaps  map[string]*roaring.Bitmap
	docFreq  map[string]int
	idf      map[string]float64
	stats    map[string]DocStats
	docIDs   []string
	vocab    []string
}

// docCounter is the pass-one result for a single document.
type docCounter struct {
	id     string
	tf     map[string]int
	length int
	maxTF  int
}

// Build indexes docs in two passes. Pass one validates identifiers and counts
// terms per document; pass two merges the counters into the shared index and
// only then derives document frequencies, idf and norms. Any invalid document
// aborts the build and no index is returned.
func Build(docs []Document) (*Index, error) {
	if uint64(len(docs)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: collection of %d documents exceeds ordinal range",
			apperrors.ErrInvalidDocument, len(docs))
	}
	counters, err := countTerms(docs)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		postings: make(map[string]map[string]int),
		bitmaps:  make(map[string]*roaring.Bitmap),
		stats:    make(map[string]DocStats, len(counters)),
		docIDs:   make([]string, len(counters)),
	}
	for ord, c := range counters {
		idx.docIDs[ord] = c.id
		idx.stats[c.id] = DocStats{
			DocID:   c.id,
			Ordinal: uint32(ord),
			Length:  c.length,
			MaxTF:   c.maxTF,
		}
		for term, tf := range c.tf {
			byDoc, ok := idx.postings[term]
			if !ok {
				byDoc = make(map[string]int)
				idx.postings[term] = byDoc
				idx.bitmaps[term] = roaring.New()
			}
			byDoc[c.id] = tf
			idx.bitmaps[term].Add(uint32(ord))
		}
	}

	idx.docFreq = make(map[string]int, len(idx.postings))
	idx.idf = make(map[string]float64, len(idx.postings))
	idx.vocab = make([]string, 0, len(idx.postings))
	for term, byDoc := range idx.postings {
		idx.docFreq[term] = len(byDoc)
		idx.vocab = append(idx.vocab, term)
	}
	sort.Strings(idx.vocab)
	for _, term := range idx.vocab {
		idx.idf[term] = IDF(len(idx.docIDs), idx.docFreq[term])
		idx.bitmaps[term].RunOptimize()
	}
	idx.computeNorms()
	return idx, nil
}

func countTerms(docs []Document) ([]docCounter, error) {
	seen := make(map[string]struct{}, len(docs))
	counters := make([]docCounter, 0, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: empty identifier at position %d", apperrors.ErrInvalidDocument, i)
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate identifier %q", apperrors.ErrInvalidDocument, doc.ID)
		}
		seen[doc.ID] = struct{}{}

		c := docCounter{
			id:     doc.ID,
			tf:     make(map[string]int),
			length: len(doc.Tokens),
		}
		for _, tok := range doc.Tokens {
			c.tf[tok]++
			if c.tf[tok] > c.maxTF {
				c.maxTF = c.tf[tok]
			}
		}
		counters = append(counters, c)
	}
	return counters, nil
}

// computeNorms walks the sorted vocabulary so every document accumulates its
// squared weights in the same order on every build.
func (idx *Index) computeNorms() {
	sumSquares := make(map[string]float64, len(idx.docIDs))
	for _, term := range idx.vocab {
		idf := idx.idf[term]
		for docID, tf := range idx.postings[term] {
			w := Weight(tf, idx.stats[docID].MaxTF, idf)
			sumSquares[docID] += w * w
		}
	}
	for docID, st := range idx.stats {
		st.Norm = math.Sqrt(sumSquares[docID])
		idx.stats[docID] = st
	}
}

func (idx *Index) DocCount() int {
	return len(idx.docIDs)
}

func (idx *Index) VocabularySize() int {
	return len(idx.vocab)
}

// Vocabulary returns the indexed terms in lexical order.
func (idx *Index) Vocabulary() []string {
	out := make([]string, len(idx.vocab))
	copy(out, idx.vocab)
	return out
}

// DocIDs returns the document identifiers in insertion order.
func (idx *Index) DocIDs() []string {
	out := make([]string, len(idx.docIDs))
	copy(out, idx.docIDs)
	return out
}

func (idx *Index) Contains(term string) bool {
	_, ok := idx.postings[term]
	return ok
}

func (idx *Index) DocFreq(term string) (int, bool) {
	df, ok := idx.docFreq[term]
	return df, ok
}

// IDF returns the precomputed idf of term. ok is false for terms outside the
// vocabulary; the returned weight is then 0.
func (idx *Index) IDF(term string) (float64, bool) {
	w, ok := idx.idf[term]
	return w, ok
}

// TermFrequency returns tf(term, docID), 0 when the term does not occur.
func (idx *Index) TermFrequency(term, docID string) int {
	return idx.postings[term][docID]
}

// Postings returns the posting list of term in document insertion order.
func (idx *Index) Postings(term string) PostingList {
	bm, ok := idx.bitmaps[term]
	if !ok {
		return nil
	}
	byDoc := idx.postings[term]
	out := make(PostingList, 0, len(byDoc))
	it := bm.Iterator()
	for it.HasNext() {
		id := idx.docIDs[it.Next()]
		out = append(out, Posting{DocID: id, Frequency: byDoc[id]})
	}
	return out
}

// Stats returns the build-time statistics of docID.
func (idx *Index) Stats(docID string) (DocStats, error) {
	st, ok := idx.stats[docID]
	if !ok {
		return DocStats{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownDocument, docID)
	}
	return st, nil
}

func (idx *Index) Norm(docID string) (float64, error) {
	st, err := idx.Stats(docID)
	if err != nil {
		return 0, err
	}
	return st.Norm, nil
}

func (idx *Index) MaxTF(docID string) (int, error) {
	st, err := idx.Stats(docID)
	if err != nil {
		return 0, err
	}
	return st.MaxTF, nil
}

func (idx *Index) DocLength(docID string) (int, error) {
	st, err := idx.Stats(docID)
	if err != nil {
		return 0, err
	}
	return st.Length, nil
}

// DocWeight is the TF-IDF weight of term in docID.
func (idx *Index) DocWeight(term, docID string) (float64, error) {
	st, err := idx.Stats(docID)
	if err != nil {
		return 0, err
	}
	idf, ok := idx.idf[term]
	if !ok {
		return 0, nil
	}
	return Weight(idx.postings[term][docID], st.MaxTF, idf), nil
}

// Candidates returns every document containing at least one of terms, in
// insertion order. Terms outside the vocabulary are ignored.
func (idx *Index) Candidates(terms []string) []string {
	bms := make([]*roaring.Bitmap, 0, len(terms))
	for _, term := range terms {
		if bm, ok := idx.bitmaps[term]; ok {
			bms = append(bms, bm)
		}
	}
	if len(bms) == 0 {
		return nil
	}
	union := roaring.FastOr(bms...)
	out := make([]string, 0, union.GetCardinality())
	it := union.Iterator()
	for it.HasNext() {
		out = append(out, idx.docIDs[it.Next()])
	}
	return out
}

// Snapshot returns every term with its postings, sorted by term. Two builds
// over the same collection produce identical snapshots.
func (idx *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(idx.vocab))
	for _, term := range idx.vocab {
		entries = append(entries, TermEntry{
			Term:     term,
			DocFreq:  idx.docFreq[term],
			Postings: idx.Postings(term),
		})
	}
	return entries
}
