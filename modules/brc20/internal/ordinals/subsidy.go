package ordinals

const (
	initialSubsidy  = 50 * 100_000_000
	halvingInterval = 210_000
)

// Subsidy is the block reward in satoshis at height.
func Subsidy(height uint64) uint64 {
	halvings := height / halvingInterval
	if halvings >= 64 {
		return 0
	}
	return initialSubsidy >> halvings
}

// BlockSupply is the number of satoshis mined up to and including height.
func BlockSupply(height uint64) uint64 {
	var supply uint64
	for epochStart := uint64(0); epochStart <= height; epochStart += halvingInterval {
		subsidy := Subsidy(epochStart)
		if subsidy == 0 {
			break
		}
		blocks := min(height-epochStart+1, halvingInterval)
		supply += blocks * subsidy
	}
	return supply
}
