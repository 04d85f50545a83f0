package idgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/idgen"
)

func TestGenerator_Next(t *testing.T) {
	gen, err := idgen.NewGenerator(1)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.Next()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewGenerator_RejectsOutOfRangeNode(t *testing.T) {
	_, err := idgen.NewGenerator(4096)
	assert.Error(t, err)
}
