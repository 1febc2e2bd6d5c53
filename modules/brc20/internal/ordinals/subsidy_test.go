package ordinals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubsidy(t *testing.T) {
	assert.Equal(t, uint64(5_000_000_000), Subsidy(0))
	assert.Equal(t, uint64(5_000_000_000), Subsidy(209_999))
	assert.Equal(t, uint64(2_500_000_000), Subsidy(210_000))
	assert.Equal(t, uint64(2_500_000_000), Subsidy(419_999))
	assert.Equal(t, uint64(1_250_000_000), Subsidy(420_000))
	assert.Equal(t, uint64(0), Subsidy(64*210_000))
}

func TestBlockSupply(t *testing.T) {
	tests := map[uint64]uint64{
		0:       5_000_000_000,
		1:       10_000_000_000,
		4:       25_000_000_000,
		209_999: 1_050_000_000_000_000,
		210_000: 1_050_002_500_000_000,
		210_001: 1_050_005_000_000_000,
		419_999: 1_575_000_000_000_000,
		420_000: 1_575_001_250_000_000,
	}
	for height, expected := range tests {
		assert.Equal(t, expected, BlockSupply(height), "height %d", height)
	}
}
