// Package encoding maps raw claim categoricals into the integer codes the
// scoring engine was trained on: vocabulary label encoding with a
// deterministic fallback, and strict binary flag normalization.
package encoding

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Vocabulary is an ordered, immutable label-to-code mapping fixed at
// training time. Codes are the label's position in the construction-time
// ordering. Vocabularies are read-only after construction and safe for
// concurrent use without locking.
type Vocabulary struct {
	name   string
	labels []string
	index  map[string]int
}

// NewVocabulary builds a vocabulary from the canonical training-time label
// ordering. The label list must be non-empty and free of duplicates.
func NewVocabulary(name string, labels []string) (*Vocabulary, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("vocabulary %q must contain at least one label", name)
	}

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		if _, exists := index[label]; exists {
			return nil, fmt.Errorf("vocabulary %q contains duplicate label %q", name, label)
		}
		index[label] = i
	}

	owned := make([]string, len(labels))
	copy(owned, labels)

	return &Vocabulary{name: name, labels: owned, index: index}, nil
}

// Name returns the vocabulary name.
func (v *Vocabulary) Name() string {
	return v.name
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// FallbackLabel is the deterministic substitute for unseen values: the
// first label of the construction-time ordering.
func (v *Vocabulary) FallbackLabel() string {
	return v.labels[0]
}

// Lookup returns the code for a label, without fallback.
func (v *Vocabulary) Lookup(label string) (int, bool) {
	code, ok := v.index[label]
	return code, ok
}

// CategoryEncoder encodes categorical labels against a vocabulary, never
// failing on unseen input. An out-of-vocabulary label is silently scored
// as whatever category came first in the training vocabulary; that is a
// modeling caveat, so substitutions are logged and counted rather than
// surfaced as errors.
type CategoryEncoder struct {
	vocab     *Vocabulary
	log       *logrus.Logger
	fallbacks atomic.Int64
}

// NewCategoryEncoder creates an encoder over a vocabulary.
func NewCategoryEncoder(vocab *Vocabulary, logger *logrus.Logger) *CategoryEncoder {
	return &CategoryEncoder{vocab: vocab, log: logger}
}

// Encode returns the code for label, substituting the fallback label when
// the input is absent from the vocabulary. The second return reports
// whether a substitution happened.
func (e *CategoryEncoder) Encode(label string) (int, bool) {
	if code, ok := e.vocab.Lookup(label); ok {
		return code, false
	}

	fallback := e.vocab.FallbackLabel()
	code, _ := e.vocab.Lookup(fallback)

	e.fallbacks.Add(1)
	e.log.WithFields(logrus.Fields{
		"vocabulary": e.vocab.Name(),
		"label":      label,
		"fallback":   fallback,
	}).Warn("Unknown vocabulary entry, substituting fallback label")

	return code, true
}

// FallbackCount returns the number of substitutions performed since start.
func (e *CategoryEncoder) FallbackCount() int64 {
	return e.fallbacks.Load()
}
