package ranker

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
)

// BenchmarkCosineRanking measures scoring and sorting for growing candidate
// sets. Norms come from the index, so cost tracks candidates, not vocabulary.
func BenchmarkCosineRanking(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			idx, err := index.Build(randomDocs(1, numDocs))
			if err != nil {
				b.Fatal(err)
			}
			query := []string{"gene", "immune", "trial"}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Rank(idx, query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCosineRankingParallel(b *testing.B) {
	idx, err := index.Build(randomDocs(2, 10000))
	if err != nil {
		b.Fatal(err)
	}
	query := []string{"cell", "virus"}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := Rank(idx, query); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
