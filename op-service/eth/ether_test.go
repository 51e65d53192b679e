package eth

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestETHString(t *testing.T) {
	require.Equal(t, "0 wei", ZeroWei.String())
	require.Equal(t, "1 wei", OneWei.String())
	require.Equal(t, "1 gwei", OneGWei.String())
	require.Equal(t, "1 ether", OneEther.String())
	require.Equal(t, "1,000 ether", Ether(1000).String())
	require.Equal(t, "1,000,000,001 wei", WeiU64(1_000_000_001).String())
}

func TestETHEtherString(t *testing.T) {
	require.Equal(t, "10", Ether(10).EtherString())
	require.Equal(t, "1.5", Ether(1).Add(GWei(500_000_000)).EtherString())
	require.Equal(t, "0.000000000000000001", OneWei.EtherString())
}

func TestETHArithmetic(t *testing.T) {
	sum, overflow := MaxU256Wei.AddOverflow(OneWei)
	require.True(t, overflow)
	require.True(t, sum.IsZero())

	_, underflow := ZeroWei.SubUnderflow(OneWei)
	require.True(t, underflow)

	diff, underflow := Ether(2).SubUnderflow(OneEther)
	require.False(t, underflow)
	require.Equal(t, OneEther, diff)

	require.Equal(t, OneEther, OneGWei.Mul(1e9))
	require.Panics(t, func() { MaxU256Wei.Add(OneWei) })
	require.Panics(t, func() { MaxU256Wei.Mul(2) })
	require.Equal(t, -1, OneWei.Cmp(OneGWei))
}

func TestETHConversions(t *testing.T) {
	require.Equal(t, big.NewInt(1e18), OneEther.ToBig())
	require.Equal(t, OneEther, WeiBig(big.NewInt(1e18)))
	require.Equal(t, OneEther, WeiU256(OneEther.ToU256()))
	require.Equal(t, ZeroWei, WeiU256(nil))
	require.Panics(t, func() { WeiBig(big.NewInt(-1)) })
	b := OneWei.Bytes32()
	require.Equal(t, byte(1), b[31])
}

func TestETHParse(t *testing.T) {
	v, err := ParseETH("1000000000")
	require.NoError(t, err)
	require.Equal(t, OneGWei, v)

	v, err = ParseETH("0x3b9aca00")
	require.NoError(t, err)
	require.Equal(t, OneGWei, v)

	_, err = ParseETH("ten")
	require.Error(t, err)
}

func TestETHJSON(t *testing.T) {
	type wrapper struct {
		Amount ETH `json:"amount"`
	}
	data, err := json.Marshal(wrapper{Amount: GWei(3)})
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":"3000000000"}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, GWei(3), out.Amount)
}
