package payment

import (
	"math/big"

	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
)

// Coin fractional units per whole unit.
const fracPerWhole = 1000000000

// All engine arithmetic is done on amounts denominated in coin fractional
// units, held as arbitrary precision integers so that the intermediate
// products of the pro rata computation cannot overflow. On the wire an
// amount is the big-endian magnitude bytes, the empty slice meaning zero.

func bigAmount(raw []byte) *big.Int {
	return new(big.Int).SetBytes(raw)
}

func amountBytes(v *big.Int) []byte {
	return v.Bytes()
}

// asCoin converts an amount in fractional units to a coin of the given
// ticker. Fails with ErrOverflow when the whole part does not fit the coin
// representation.
func asCoin(v *big.Int, ticker string) (coin.Coin, error) {
	var q, r big.Int
	q.QuoRem(v, big.NewInt(fracPerWhole), &r)
	if !q.IsInt64() {
		return coin.Coin{}, errors.Wrapf(errors.ErrOverflow, "amount %s does not fit a coin", v)
	}
	return coin.NewCoin(q.Int64(), r.Int64(), ticker), nil
}

// coinUnits returns the value of c in fractional units.
func coinUnits(c coin.Coin) *big.Int {
	v := big.NewInt(c.Whole)
	v.Mul(v, big.NewInt(fracPerWhole))
	return v.Add(v, big.NewInt(c.Fractional))
}
