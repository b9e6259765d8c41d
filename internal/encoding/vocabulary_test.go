package encoding

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewVocabulary(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		wantErr bool
	}{
		{
			name:   "valid labels",
			labels: []string{"99213", "99214", "323"},
		},
		{
			name:    "empty labels",
			labels:  []string{},
			wantErr: true,
		},
		{
			name:    "duplicate labels",
			labels:  []string{"99213", "99214", "99213"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vocab, err := NewVocabulary("hcpcs", tt.labels)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.labels), vocab.Len())
			assert.Equal(t, tt.labels[0], vocab.FallbackLabel())
		})
	}
}

func TestVocabulary_CodesAreConstructionOrder(t *testing.T) {
	vocab, err := NewVocabulary("hcpcs", []string{"323", "99213", "99214"})
	require.NoError(t, err)

	for i, label := range []string{"323", "99213", "99214"} {
		code, ok := vocab.Lookup(label)
		require.True(t, ok)
		assert.Equal(t, i, code)
	}

	_, ok := vocab.Lookup("G0008")
	assert.False(t, ok)
}

func TestCategoryEncoder_Encode(t *testing.T) {
	vocab, err := NewVocabulary("provider_type", []string{"45", "70", "93"})
	require.NoError(t, err)
	encoder := NewCategoryEncoder(vocab, testLogger())

	// Known labels encode without substitution.
	code, fellBack := encoder.Encode("70")
	assert.Equal(t, 1, code)
	assert.False(t, fellBack)
	assert.EqualValues(t, 0, encoder.FallbackCount())

	// Unseen labels substitute the first training label, deterministically.
	code, fellBack = encoder.Encode("unknown-specialty")
	assert.Equal(t, 0, code)
	assert.True(t, fellBack)

	again, fellBack := encoder.Encode("unknown-specialty")
	assert.Equal(t, code, again)
	assert.True(t, fellBack)
	assert.EqualValues(t, 2, encoder.FallbackCount())
}

func TestCategoryEncoder_EncodeIsStable(t *testing.T) {
	vocab, err := NewVocabulary("hcpcs", []string{"323", "99213"})
	require.NoError(t, err)
	encoder := NewCategoryEncoder(vocab, testLogger())

	first, _ := encoder.Encode("99213")
	for i := 0; i < 10; i++ {
		code, fellBack := encoder.Encode("99213")
		assert.Equal(t, first, code)
		assert.False(t, fellBack)
	}
}
