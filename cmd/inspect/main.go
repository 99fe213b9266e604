// Command inspect prints a vocabulary report for the configured collection.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
)

const (
	vocabPreview   = 100
	postingPreview = 5
	tokenPreview   = 20
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	field := flag.String("field", config.FieldTitleAndText, "indexed field to inspect")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging, os.Stderr)

	coll, err := corpus.LoadCollection(cfg.Corpus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading collection: %v\n", err)
		os.Exit(1)
	}
	engine, err := indexer.NewEngine(coll.Documents, *field, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building index: %v\n", err)
		os.Exit(1)
	}
	report(os.Stdout, coll, engine)
}

func report(w io.Writer, coll *corpus.Collection, engine *indexer.Engine) {
	idx := engine.Index()
	fmt.Fprintf(w, "Documents: %d\n", len(coll.RawDocuments))
	fmt.Fprintf(w, "Queries: %d (test: %d)\n", len(coll.RawQueries), len(coll.Queries))
	fmt.Fprintf(w, "Judged queries: %d\n", len(coll.Qrels))
	fmt.Fprintf(w, "Field: %s\n", engine.Field())
	fmt.Fprintf(w, "Vocabulary size: %d\n", idx.VocabularySize())

	vocab := idx.Vocabulary()
	fmt.Fprintf(w, "\nFirst %d vocabulary terms:\n%s\n", vocabPreview, strings.Join(vocab[:min(vocabPreview, len(vocab))], " "))

	if len(vocab) > 0 {
		term := vocab[0]
		df, _ := idx.DocFreq(term)
		fmt.Fprintf(w, "\nTerm %q: df=%d\n", term, df)
		postings := idx.Postings(term)
		for _, p := range postings[:min(postingPreview, len(postings))] {
			weight, err := idx.DocWeight(term, p.DocID)
			if err != nil {
				fmt.Fprintf(w, "  %s tf=%d weight error: %v\n", p.DocID, p.Frequency, err)
				continue
			}
			fmt.Fprintf(w, "  %s tf=%d w=%.4f\n", p.DocID, p.Frequency, weight)
		}
	}

	if len(coll.Documents) > 0 {
		d := coll.Documents[0]
		fmt.Fprintf(w, "\nDocument %s title tokens: %v\n", d.ID, d.TitleTokens[:min(tokenPreview, len(d.TitleTokens))])
		fmt.Fprintf(w, "Document %s text tokens: %v\n", d.ID, d.TextTokens[:min(tokenPreview, len(d.TextTokens))])
	}
	if len(coll.Queries) > 0 {
		q := coll.Queries[0]
		fmt.Fprintf(w, "Query %s tokens: %v\n", q.ID, q.Tokens[:min(tokenPreview, len(q.Tokens))])
		if len(coll.Documents) > 0 {
			d := coll.Documents[0]
			sim, err := ranker.Similarity(idx, q.Tokens, d.ID)
			if err != nil {
				fmt.Fprintf(w, "Similarity(query %s, document %s): %v\n", q.ID, d.ID, err)
			} else {
				fmt.Fprintf(w, "Similarity(query %s, document %s) = %.4f\n", q.ID, d.ID, sim)
			}
		}
	}
}
