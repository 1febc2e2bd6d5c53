package automaxprocs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitUndo(t *testing.T) {
	before := Current()
	require.NoError(t, Init())
	assert.GreaterOrEqual(t, Current(), 1)
	assert.Equal(t, before, Undo())
}
