package btcutils

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
)

// PkScriptToAddress returns the encoded address of a standard single-address pkScript.
func PkScriptToAddress(pkScript []byte, net *chaincfg.Params) (string, error) {
	if len(pkScript) == 0 {
		return "", errors.Wrap(errs.InvalidArgument, "empty pkScript")
	}
	if pkScript[0] == txscript.OP_RETURN {
		return "", errors.Wrap(errs.Unsupported, "OP_RETURN script")
	}
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, net)
	if err != nil {
		return "", errors.Wrap(err, "can't extract addresses from pkScript")
	}
	if class == txscript.NonStandardTy || class == txscript.MultiSigTy || len(addrs) != 1 {
		return "", errors.Wrapf(errs.Unsupported, "unsupported pkScript type %s", class)
	}
	return addrs[0].EncodeAddress(), nil
}

// AddressResolver decodes a hex encoded locking script into an address for one network.
type AddressResolver struct {
	net *chaincfg.Params
}

func NewAddressResolver(net *chaincfg.Params) AddressResolver {
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	return AddressResolver{net: net}
}

// AddressOf returns the address owning pkScriptHex, or false when it has none.
func (r AddressResolver) AddressOf(pkScriptHex string) (string, bool) {
	pkScript, err := hex.DecodeString(pkScriptHex)
	if err != nil {
		return "", false
	}
	address, err := PkScriptToAddress(pkScript, r.net)
	if err != nil {
		return "", false
	}
	return address, true
}
