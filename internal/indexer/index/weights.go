package index

import "math"

// IDF is log2(docCount/docFreq). Terms absent from the collection weigh 0.
func IDF(docCount, docFreq int) float64 {
	if docCount <= 0 || docFreq <= 0 {
		return 0
	}
	return math.Log2(float64(docCount) / float64(docFreq))
}

// NormalizedTF divides a frequency by the document's maximum term frequency.
// An empty document (maxTF 0) yields 0.
func NormalizedTF(tf, maxTF int) float64 {
	if maxTF <= 0 {
		return 0
	}
	return float64(tf) / float64(maxTF)
}

// Weight is the TF-IDF weight of a term in a document.
func Weight(tf, maxTF int, idf float64) float64 {
	return NormalizedTF(tf, maxTF) * idf
}
