package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed_Embedded(t *testing.T) {
	s, err := ParseSeed(SeedMenu)
	require.NoError(t, err)

	assert.Contains(t, s.Categories, "Mains")
	assert.NotEmpty(t, s.Tables)
	require.NotEmpty(t, s.Items)

	byName := make(map[string]SeedItem, len(s.Items))
	for _, it := range s.Items {
		byName[it.Name] = it
	}
	pho := byName["Beef pho"]
	assert.Equal(t, "45000", pho.Price.String())
	assert.True(t, pho.IsAvailable())
	assert.False(t, byName["Coconut flan"].IsAvailable())
}

func TestParseSeed_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"items": [`},
		{"missing name", `{"items": [{"price": "10"}]}`},
		{"negative price", `{"items": [{"name": "x", "price": "-1"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
