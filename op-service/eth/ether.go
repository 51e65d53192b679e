package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ethereum/go-ethereum/params"
)

var (
	OneEther   = Ether(1)
	OneGWei    = GWei(1)
	OneWei     = WeiU64(1)
	ZeroWei    = WeiU64(0)
	MaxU256Wei = ETH(uint256.Int{0: ^uint64(0), 1: ^uint64(0), 2: ^uint64(0), 3: ^uint64(0)})
)

var (
	weiPerGWei = uint256.NewInt(params.GWei)
	weiPerEth  = uint256.NewInt(params.Ether)
)

// ETH is an amount of wei, as carried by the fee and value of a cross-chain message.
// Methods return a new value instead of mutating in-place.
type ETH uint256.Int

// String prints the amount with thousands comma-separators and a unit.
// Amounts divisible by 1 ether print in ether, amounts divisible by 1 gwei print in gwei,
// anything else prints in wei.
func (e ETH) String() string {
	vWei := (*uint256.Int)(&e)
	if vWei.Sign() == 0 {
		return "0 wei"
	}
	var vGWei, remainder uint256.Int
	vGWei.DivMod(vWei, weiPerGWei, &remainder)
	if remainder.Sign() == 0 {
		var vEth uint256.Int
		vEth.DivMod(vWei, weiPerEth, &remainder)
		if remainder.Sign() == 0 {
			return vEth.PrettyDec(',') + " ether"
		}
		return vGWei.PrettyDec(',') + " gwei"
	}
	return vWei.PrettyDec(',') + " wei"
}

// Decimal returns the amount, in wei, in decimal form.
func (e ETH) Decimal() string {
	return (*uint256.Int)(&e).Dec()
}

// EtherString returns the amount forced in ether units, excluding the unit suffix.
func (e ETH) EtherString() string {
	var ethers, remainder uint256.Int
	ethers.DivMod((*uint256.Int)(&e), weiPerEth, &remainder)
	if remainder.Sign() == 0 {
		return ethers.Dec()
	}
	frac := remainder.Dec()
	frac = strings.Repeat("0", 18-len(frac)) + frac
	suffix := strings.TrimRight(frac, "0")
	return ethers.Dec() + "." + suffix
}

// WeiFloat returns the amount as an approximate floating point number of wei.
func (e ETH) WeiFloat() float64 {
	return (*uint256.Int)(&e).Float64()
}

// ToBig converts to *big.Int, in wei.
func (e ETH) ToBig() *big.Int {
	return (*uint256.Int)(&e).ToBig()
}

// ToU256 returns a copy as *uint256.Int, in wei.
func (e ETH) ToU256() *uint256.Int {
	return (*uint256.Int)(&e).Clone()
}

// Bytes32 converts to a big-endian 32 byte word, in wei.
func (e ETH) Bytes32() [32]byte {
	return (*uint256.Int)(&e).Bytes32()
}

// AddOverflow adds v and reports whether the sum overflowed uint256.
func (e ETH) AddOverflow(v ETH) (out ETH, overflow bool) {
	_, overflow = (*uint256.Int)(&out).AddOverflow((*uint256.Int)(&e), (*uint256.Int)(&v))
	return
}

// Add adds v and panics on overflow.
func (e ETH) Add(v ETH) ETH {
	out, overflow := e.AddOverflow(v)
	if overflow {
		panic(fmt.Errorf("add overflow: %s + %s", e, v))
	}
	return out
}

// SubUnderflow subtracts v and reports whether the result underflowed.
func (e ETH) SubUnderflow(v ETH) (out ETH, underflow bool) {
	_, underflow = (*uint256.Int)(&out).SubOverflow((*uint256.Int)(&e), (*uint256.Int)(&v))
	return
}

// Mul multiplies by a scalar and panics on overflow.
func (e ETH) Mul(scalar uint64) (out ETH) {
	_, overflow := (*uint256.Int)(&out).MulOverflow((*uint256.Int)(&e), uint256.NewInt(scalar))
	if overflow {
		panic(fmt.Errorf("mul overflow: %s * %d", e, scalar))
	}
	return
}

func (e ETH) Cmp(v ETH) int {
	return (*uint256.Int)(&e).Cmp((*uint256.Int)(&v))
}

func (e ETH) IsZero() bool {
	return (*uint256.Int)(&e).IsZero()
}

// UnmarshalText supports hexadecimal (0x prefix) and decimal.
func (e *ETH) UnmarshalText(data []byte) error {
	return (*uint256.Int)(e).UnmarshalText(data)
}

// UnmarshalJSON accepts a quoted hexadecimal or decimal string, or an unquoted decimal number.
func (e *ETH) UnmarshalJSON(data []byte) error {
	return (*uint256.Int)(e).UnmarshalJSON(data)
}

// MarshalText marshals as a decimal number, without separators or unit.
func (e ETH) MarshalText() ([]byte, error) {
	return (*uint256.Int)(&e).MarshalText()
}

// ParseETH parses a decimal or 0x-prefixed hexadecimal amount of wei.
func ParseETH(s string) (ETH, error) {
	var out ETH
	if err := out.UnmarshalText([]byte(s)); err != nil {
		return ETH{}, fmt.Errorf("invalid wei amount %q: %w", s, err)
	}
	return out, nil
}

// WeiBig turns the given big.Int amount of wei into ETH-typed wei.
// This panics if the amount is negative or does not fit in 256 bits.
func WeiBig(wei *big.Int) (out ETH) {
	if wei == nil {
		panic("nil *big.Int input to ETH constructor")
	}
	if wei.Sign() < 0 {
		panic("negative amounts are not supported")
	}
	if overflow := (*uint256.Int)(&out).SetFromBig(wei); overflow {
		panic("*big.Int input does not fit in uint256")
	}
	return
}

// WeiU256 turns the given uint256.Int amount of wei into ETH-typed wei.
// A nil input is treated as zero.
func WeiU256(wei *uint256.Int) ETH {
	if wei == nil {
		return ZeroWei
	}
	return ETH(*wei)
}

// WeiU64 turns the given uint64 amount of wei into ETH-typed wei.
func WeiU64(wei uint64) (out ETH) {
	(*uint256.Int)(&out).SetUint64(wei)
	return
}

// GWei multiplies the given amount by 1e9 to denominate it in wei.
func GWei(gwei uint64) ETH {
	var x uint256.Int
	x.SetUint64(gwei)
	x.Mul(&x, weiPerGWei)
	return ETH(x)
}

// Ether multiplies the given amount by 1e18 to denominate it in wei.
func Ether(ether uint64) ETH {
	var x uint256.Int
	x.SetUint64(ether)
	x.Mul(&x, weiPerEth)
	return ETH(x)
}
