package corpus

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const maxLineSize = 16 * 1024 * 1024

func LoadDocuments(path string) ([]RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening documents: %w", err)
	}
	defer f.Close()
	docs, err := ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("reading documents from %s: %w", path, err)
	}
	return docs, nil
}

// ReadDocuments parses one JSON document per line. Blank lines are skipped;
// a record without "_id" is an error.
func ReadDocuments(r io.Reader) ([]RawDocument, error) {
	var docs []RawDocument
	err := eachLine(r, func(lineNo int, line []byte) error {
		var rec documentRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if rec.ID == nil {
			return fmt.Errorf("line %d: missing _id", lineNo)
		}
		docs = append(docs, RawDocument{
			ID:    string(*rec.ID),
			Title: orDefault(rec.Title, NoTitle),
			Text:  orDefault(rec.Text, NoText),
			URL:   orDefault(rec.Metadata.URL, NoURL),
		})
		return nil
	})
	return docs, err
}

func LoadQueries(path string) ([]RawQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries: %w", err)
	}
	defer f.Close()
	queries, err := ReadQueries(f)
	if err != nil {
		return nil, fmt.Errorf("reading queries from %s: %w", path, err)
	}
	return queries, nil
}

func ReadQueries(r io.Reader) ([]RawQuery, error) {
	var queries []RawQuery
	err := eachLine(r, func(lineNo int, line []byte) error {
		var rec queryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if rec.ID == nil {
			return fmt.Errorf("line %d: missing _id", lineNo)
		}
		queries = append(queries, RawQuery{
			ID:        string(*rec.ID),
			Text:      orDefault(rec.Text, NoText),
			Query:     orDefault(rec.Metadata.Query, NoQuery),
			Narrative: orDefault(rec.Metadata.Narrative, NoNarrative),
			URL:       orDefault(rec.Metadata.URL, NoURL),
		})
		return nil
	})
	return queries, err
}

func eachLine(r io.Reader, fn func(lineNo int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func LoadQrels(path string) (Qrels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening qrels: %w", err)
	}
	defer f.Close()
	qrels, err := ReadQrels(f)
	if err != nil {
		return nil, fmt.Errorf("reading qrels from %s: %w", path, err)
	}
	return qrels, nil
}

// ReadQrels parses "query-id<TAB>corpus-id<TAB>score" rows. A first row with a
// cell mentioning "query" is treated as a header. Scores may be written as
// floats and are truncated to integers.
func ReadQrels(r io.Reader) (Qrels, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	qrels := make(Qrels)
	for rowNo := 1; ; rowNo++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNo, err)
		}
		if rowNo == 1 && isHeader(row) {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", rowNo, len(row))
		}
		qid := strings.TrimSpace(row[0])
		docID := strings.TrimSpace(row[1])
		score, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: score %q: %w", rowNo, row[2], err)
		}
		if qrels[qid] == nil {
			qrels[qid] = make(map[string]int)
		}
		qrels[qid][docID] = int(score)
	}
	return qrels, nil
}

func isHeader(row []string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), "query") {
			return true
		}
	}
	return false
}

// FilterTestQueries keeps the queries judged in qrels whose numeric id is
// odd, ordered by ascending id. Non-numeric ids are kept and placed after
// the numeric ones in their input order.
func FilterTestQueries(queries []RawQuery, qrels Qrels) []RawQuery {
	type keyed struct {
		q       RawQuery
		num     int
		numeric bool
	}
	kept := make([]keyed, 0, len(queries))
	for _, q := range queries {
		id := strings.TrimSpace(q.ID)
		if _, judged := qrels[id]; !judged {
			continue
		}
		n, err := strconv.Atoi(id)
		if err != nil {
			kept = append(kept, keyed{q: q})
			continue
		}
		if n%2 == 1 || n%2 == -1 {
			kept = append(kept, keyed{q: q, num: n, numeric: true})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].numeric != kept[j].numeric {
			return kept[i].numeric
		}
		return kept[i].numeric && kept[i].num < kept[j].num
	})
	out := make([]RawQuery, len(kept))
	for i, k := range kept {
		out[i] = k.q
	}
	return out
}
