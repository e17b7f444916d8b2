package decimals

import (
	"math"
	"math/big"
	"reflect"

	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// DefaultDivPrecision covers 18 token decimals on both sides of a division.
const DefaultDivPrecision = 36

func init() {
	decimal.DivisionPrecision = DefaultDivPrecision
}

// FromBaseUnits scales a raw token amount by 10^-decimals. A nil amount is zero.
func FromBaseUnits(raw *uint256.Int, decimals uint8) decimal.Decimal {
	return ToDecimal(raw, decimals)
}

// ToDecimal scales an integer amount of any supported type by 10^-decimals.
// Unsupported types and unparsable strings are treated as zero.
func ToDecimal[T constraints.Integer](value any, decimals T) decimal.Decimal {
	exp := int64(decimals)
	if exp > math.MaxInt32 || exp < math.MinInt32+1 {
		logger.Panic("decimals out of int32 range", slogx.Any("decimals", decimals))
	}
	return decimal.NewFromBigInt(toBig(value), -int32(exp))
}

func toBig(value any) *big.Int {
	switch v := value.(type) {
	case *uint256.Int:
		if v != nil {
			return v.ToBig()
		}
	case uint256.Int:
		return v.ToBig()
	case uint128.Uint128:
		return v.Big()
	case *big.Int:
		if v != nil {
			return v
		}
	case string:
		if n, ok := new(big.Int).SetString(v, 10); ok {
			return n
		}
	case []byte:
		return new(big.Int).SetBytes(v)
	case int, int8, int16, int32, int64:
		return big.NewInt(reflect.ValueOf(v).Int())
	case uint, uint8, uint16, uint32, uint64:
		return new(big.Int).SetUint64(reflect.ValueOf(v).Uint())
	}
	return new(big.Int)
}
