package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	etherDecimals = 18
)

// WeiToEther converts an amount in wei to a decimal string amount in ether
func WeiToEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}

// EtherToWei converts a decimal string amount in ether to wei. Fractions of
// a wei are truncated.
func EtherToWei(ether string) (*big.Int, error) {
	amount, err := decimal.NewFromString(ether)
	if err != nil {
		return nil, err
	}
	return amount.Shift(etherDecimals).BigInt(), nil
}
