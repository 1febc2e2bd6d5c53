package common

import "github.com/btcsuite/btcd/chaincfg"

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkRegtest Network = "regtest"
)

var chainParams = map[Network]*chaincfg.Params{
	NetworkMainnet: &chaincfg.MainNetParams,
	NetworkTestnet: &chaincfg.TestNet3Params,
	NetworkRegtest: &chaincfg.RegressionNetParams,
}

func (n Network) IsSupported() bool {
	_, ok := chainParams[n]
	return ok
}

// ChainParams returns the address encoding parameters of the network. Unknown networks fall back to mainnet.
func (n Network) ChainParams() *chaincfg.Params {
	if params, ok := chainParams[n]; ok {
		return params
	}
	return &chaincfg.MainNetParams
}

func (n Network) String() string {
	return string(n)
}
