package cluster

import (
	"errors"
	"math"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// errEmptyVocabulary is returned when no document yields a usable term.
var errEmptyVocabulary = errors.New("empty vocabulary")

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// SparseVector is a row of a document-term matrix.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the dot product with a dense vector.
func (v SparseVector) Dot(dense []float64) float64 {
	sum := 0.0
	for i, idx := range v.Indices {
		sum += v.Values[i] * dense[idx]
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (v SparseVector) SquaredNorm() float64 {
	sum := 0.0
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

// Matrix is a sparse document-term matrix.
type Matrix struct {
	Rows []SparseVector
	Cols int
}

// Vectorizer turns documents into L2-normalized TF-IDF rows.
type Vectorizer struct {
	// MaxFeatures caps the vocabulary by corpus term frequency. Zero keeps every term.
	MaxFeatures int
	// StopWords are dropped before n-grams are built.
	StopWords map[string]struct{}
}

// NewVectorizer returns a Vectorizer with English stop words.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures, StopWords: EnglishStopWords}
}

// Tokenize lowercases doc and returns its unigrams followed by its bigrams.
func (v *Vectorizer) Tokenize(doc string) []string {
	lower := cases.Lower(language.Und).String(doc)
	words := tokenPattern.FindAllString(lower, -1)

	kept := words[:0]
	for _, w := range words {
		if _, stop := v.StopWords[w]; !stop {
			kept = append(kept, w)
		}
	}

	terms := make([]string, 0, 2*len(kept))
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// FitTransform learns the vocabulary from docs and returns their TF-IDF
// matrix together with the vocabulary in column order.
func (v *Vectorizer) FitTransform(docs []string) (Matrix, []string, error) {
	counts := make([]map[string]int, len(docs))
	termFreq := map[string]int{}
	docFreq := map[string]int{}

	for i, doc := range docs {
		c := map[string]int{}
		for _, t := range v.Tokenize(doc) {
			c[t]++
		}
		for t, n := range c {
			termFreq[t] += n
			docFreq[t]++
		}
		counts[i] = c
	}
	if len(termFreq) == 0 {
		return Matrix{}, nil, errEmptyVocabulary
	}

	vocab := make([]string, 0, len(termFreq))
	for t := range termFreq {
		vocab = append(vocab, t)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if termFreq[vocab[i]] != termFreq[vocab[j]] {
			return termFreq[vocab[i]] > termFreq[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	column := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(docs))
	for i, t := range vocab {
		column[t] = i
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	m := Matrix{Rows: make([]SparseVector, len(docs)), Cols: len(vocab)}
	for i, c := range counts {
		var row SparseVector
		for t, tf := range c {
			col, ok := column[t]
			if !ok {
				continue
			}
			row.Indices = append(row.Indices, col)
			row.Values = append(row.Values, float64(tf)*idf[col])
		}
		sortRow(&row)
		if norm := math.Sqrt(row.SquaredNorm()); norm > 0 {
			for j := range row.Values {
				row.Values[j] /= norm
			}
		}
		m.Rows[i] = row
	}
	return m, vocab, nil
}

func sortRow(row *SparseVector) {
	sort.Sort(byIndex{row})
}

type byIndex struct{ *SparseVector }

func (b byIndex) Len() int           { return len(b.Indices) }
func (b byIndex) Less(i, j int) bool { return b.Indices[i] < b.Indices[j] }
func (b byIndex) Swap(i, j int) {
	b.Indices[i], b.Indices[j] = b.Indices[j], b.Indices[i]
	b.Values[i], b.Values[j] = b.Values[j], b.Values[i]
}
