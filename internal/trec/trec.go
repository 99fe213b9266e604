// Package trec writes ranked runs and relevance judgments in the plain-text
// formats read by trec_eval.
package trec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
)

// WriteRun writes "qid Q0 docid rank score tag" lines, at most topK per
// query, ranks starting at 1 and scores with four decimals. Queries keep the
// order of results. topK <= 0 writes every result.
func WriteRun(w io.Writer, runTag string, topK int, results []executor.QueryResult) error {
	bw := bufio.NewWriter(w)
	for _, qr := range results {
		for i, sd := range qr.Results {
			if topK > 0 && i >= topK {
				break
			}
			if _, err := fmt.Fprintf(bw, "%s Q0 %s %d %.4f %s\n", qr.QueryID, sd.DocID, i+1, sd.Score, runTag); err != nil {
				return fmt.Errorf("writing run line: %w", err)
			}
		}
	}
	return bw.Flush()
}

func WriteRunFile(path, runTag string, topK int, results []executor.QueryResult) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteRun(w, runTag, topK, results)
	})
}

// WriteQrels writes "qid 0 docid grade" lines. Query ids are ordered
// numerically, non-numeric ids sorting as 0, and document ids lexically.
func WriteQrels(w io.Writer, qrels corpus.Qrels) error {
	qids := make([]string, 0, len(qrels))
	for qid := range qrels {
		qids = append(qids, qid)
	}
	sort.SliceStable(qids, func(i, j int) bool {
		ni, nj := numericOrZero(qids[i]), numericOrZero(qids[j])
		if ni != nj {
			return ni < nj
		}
		return qids[i] < qids[j]
	})

	bw := bufio.NewWriter(w)
	for _, qid := range qids {
		docIDs := make([]string, 0, len(qrels[qid]))
		for docID := range qrels[qid] {
			docIDs = append(docIDs, docID)
		}
		sort.Strings(docIDs)
		for _, docID := range docIDs {
			if _, err := fmt.Fprintf(bw, "%s 0 %s %d\n", qid, docID, qrels[qid][docID]); err != nil {
				return fmt.Errorf("writing qrels line: %w", err)
			}
		}
	}
	return bw.Flush()
}

func WriteQrelsFile(path string, qrels corpus.Qrels) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteQrels(w, qrels)
	})
}

func numericOrZero(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// writeFile creates parent directories and replaces path atomically.
func writeFile(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
