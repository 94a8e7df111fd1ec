package analyzer

import (
	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
)

// Analyzer classifies files and turns selection criteria into plans.
type Analyzer struct {
	classifier *Classifier
	hasher     hasher.Hasher
}

// New creates a new Analyzer. A nil classifier selects the default keyword set.
func New(classifier *Classifier, h hasher.Hasher) *Analyzer {
	if classifier == nil {
		classifier = defaultClassifier
	}
	return &Analyzer{classifier: classifier, hasher: h}
}

// Classifier returns the classifier used for risk scoring.
func (a *Analyzer) Classifier() *Classifier {
	return a.classifier
}
