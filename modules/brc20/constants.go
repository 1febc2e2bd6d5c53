package brc20

const (
	Version          = "v0.1.0"
	ClientVersion    = "brc20-indexer/" + Version
	DBVersion        = 1
	EventHashVersion = 1
)
