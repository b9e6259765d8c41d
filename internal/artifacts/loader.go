// Package artifacts loads the training-time artifacts the pipeline needs
// at startup. Vocabularies are plain JSON (an ordered label list) rather
// than opaque serialized encoder objects, so the core stays decoupled from
// any one serialization mechanism. Load failures are fatal to startup, not
// recoverable per-request.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/domain"
	"github.com/medicare-fraud-scoring-server/internal/encoding"
)

// vocabularyFile is the on-disk schema of a vocabulary artifact. Classes
// are listed in the canonical training-time ordering; a label's code is
// its position in the list.
type vocabularyFile struct {
	Name    string   `json:"name"`
	Classes []string `json:"classes"`
}

// LoadVocabulary reads one vocabulary artifact.
func LoadVocabulary(path string) (*encoding.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary artifact %s: %w", path, err)
	}

	var file vocabularyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing vocabulary artifact %s: %w", path, err)
	}
	if file.Name == "" {
		file.Name = filepath.Base(path)
	}

	vocab, err := encoding.NewVocabulary(file.Name, file.Classes)
	if err != nil {
		return nil, fmt.Errorf("building vocabulary from %s: %w", path, err)
	}
	return vocab, nil
}

// Vocabularies holds the two encoding vocabularies the pipeline uses.
type Vocabularies struct {
	Procedure    *encoding.Vocabulary
	ProviderType *encoding.Vocabulary
}

// LoadVocabularies loads both vocabulary artifacts per configuration.
func LoadVocabularies(cfg *domain.ArtifactConfig, logger *logrus.Logger) (*Vocabularies, error) {
	procedure, err := LoadVocabulary(filepath.Join(cfg.Dir, cfg.ProcedureVocabulary))
	if err != nil {
		return nil, fmt.Errorf("loading procedure vocabulary: %w", err)
	}
	providerType, err := LoadVocabulary(filepath.Join(cfg.Dir, cfg.ProviderTypeVocabulary))
	if err != nil {
		return nil, fmt.Errorf("loading provider type vocabulary: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"procedure_labels":     procedure.Len(),
		"provider_type_labels": providerType.Len(),
	}).Info("Vocabulary artifacts loaded")

	return &Vocabularies{Procedure: procedure, ProviderType: providerType}, nil
}
