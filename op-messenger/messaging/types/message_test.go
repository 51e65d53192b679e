package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

func word(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}

func TestEncodeMessageLayout(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	calldata := []byte{0xde, 0xad, 0xbe, 0xef}

	enc, err := EncodeMessage(from, to, eth.WeiU64(3), eth.WeiU64(10), 7, calldata)
	require.NoError(t, err)

	var expected []byte
	expected = append(expected, common.LeftPadBytes(from[:], 32)...)
	expected = append(expected, common.LeftPadBytes(to[:], 32)...)
	expected = append(expected, word(3)...)
	expected = append(expected, word(10)...)
	expected = append(expected, word(7)...)
	expected = append(expected, word(6*32)...) // offset of the dynamic calldata
	expected = append(expected, word(uint64(len(calldata)))...)
	expected = append(expected, common.RightPadBytes(calldata, 32)...)
	require.Equal(t, expected, enc)

	h, err := HashMessage(from, to, eth.WeiU64(3), eth.WeiU64(10), 7, calldata)
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash(expected), h)
}

func TestEncodeMessageEmptyCalldata(t *testing.T) {
	a, err := EncodeMessage(common.Address{1}, common.Address{2}, eth.ZeroWei, eth.ZeroWei, 1, nil)
	require.NoError(t, err)
	b, err := EncodeMessage(common.Address{1}, common.Address{2}, eth.ZeroWei, eth.ZeroWei, 1, []byte{})
	require.NoError(t, err)
	require.Equal(t, a, b, "nil and empty calldata encode the same")
	require.Len(t, a, 7*32, "six head words and a zero length word")
}

func TestHashMessageDependsOnEveryField(t *testing.T) {
	base := Message{
		From:          common.Address{0xaa},
		To:            common.Address{0xbb},
		Fee:           eth.WeiU64(1),
		Value:         eth.WeiU64(2),
		MessageNumber: 3,
		Calldata:      []byte{4},
	}
	baseHash, err := base.ComputeHash()
	require.NoError(t, err)

	mutations := map[string]func(m *Message){
		"from":     func(m *Message) { m.From = common.Address{0xab} },
		"to":       func(m *Message) { m.To = common.Address{0xbc} },
		"fee":      func(m *Message) { m.Fee = eth.WeiU64(5) },
		"value":    func(m *Message) { m.Value = eth.WeiU64(6) },
		"number":   func(m *Message) { m.MessageNumber = 4 },
		"calldata": func(m *Message) { m.Calldata = []byte{5} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			m := base
			mutate(&m)
			h, err := m.ComputeHash()
			require.NoError(t, err)
			require.NotEqual(t, baseHash, h)
		})
	}
	t.Run("direction and block are not hashed", func(t *testing.T) {
		m := base
		m.Direction = L2ToL1
		m.BlockNumber = 100
		h, err := m.ComputeHash()
		require.NoError(t, err)
		require.Equal(t, baseHash, h)
	})
}

func TestCheckHash(t *testing.T) {
	m := Message{From: common.Address{1}, To: common.Address{2}, Value: eth.WeiU64(10), MessageNumber: 1}
	require.ErrorIs(t, m.CheckHash(), ErrHashMismatch)
	h, err := m.ComputeHash()
	require.NoError(t, err)
	m.Hash = h
	require.NoError(t, m.CheckHash())
}

func TestNextRollingHash(t *testing.T) {
	msgHash := common.Hash{0x01}
	expected := crypto.Keccak256Hash(append(GenesisRollingHash.Bytes(), msgHash.Bytes()...))
	require.Equal(t, expected, NextRollingHash(GenesisRollingHash, msgHash))
	require.NotEqual(t, NextRollingHash(GenesisRollingHash, msgHash), NextRollingHash(msgHash, GenesisRollingHash),
		"the fold is order sensitive")
}

func TestMessageJSON(t *testing.T) {
	m := Message{
		Direction:     L2ToL1,
		From:          common.Address{1},
		To:            common.Address{2},
		Fee:           eth.GWei(1),
		Value:         eth.Ether(2),
		MessageNumber: 9,
		Calldata:      []byte{0x01, 0x02},
		BlockNumber:   12,
	}
	h, err := m.ComputeHash()
	require.NoError(t, err)
	m.Hash = h

	data, err := json.Marshal(&m)
	require.NoError(t, err)
	require.Contains(t, string(data), `"direction":"l2-to-l1"`)
	require.Contains(t, string(data), `"calldata":"0x0102"`)

	var out Message
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, m, out)
	require.NoError(t, out.CheckHash())
}

func TestDirection(t *testing.T) {
	require.Equal(t, L1, L1ToL2.Source())
	require.Equal(t, L2, L1ToL2.Destination())
	require.Equal(t, SchemeRollingHash, L1ToL2.Scheme())
	require.Equal(t, L2, L2ToL1.Source())
	require.Equal(t, L1, L2ToL1.Destination())
	require.Equal(t, SchemeMerkle, L2ToL1.Scheme())

	for _, d := range Directions {
		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		require.Equal(t, d, parsed)
	}
	_, err := ParseDirection("sideways")
	require.ErrorIs(t, err, ErrInvalidDirection)
	_, err = Direction(0).MarshalText()
	require.ErrorIs(t, err, ErrInvalidDirection)
}

func TestMessageStatus(t *testing.T) {
	require.True(t, StatusAnchored.Claimable())
	require.True(t, StatusCommitted.Claimable())
	require.False(t, StatusSent.Claimable())
	require.False(t, StatusClaimed.Claimable())
	require.False(t, StatusUnknown.Claimable())
	require.Equal(t, "claimed", StatusClaimed.String())
}

func TestEvidenceJSON(t *testing.T) {
	ev := MerkleEvidence(MerkleProof{LeafIndex: 2, SiblingPath: []common.Hash{{0x01}, {0x02}}, Root: common.Hash{0x03}})
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	require.Contains(t, string(data), `"scheme":"merkle"`)
	require.NotContains(t, string(data), `"anchor"`)
	var out Evidence
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, ev, out)

	data, err = json.Marshal(RollingHashEvidence(7))
	require.NoError(t, err)
	require.JSONEq(t, `{"scheme":"rolling-hash","anchor":{"anchoredMessageNumber":7}}`, string(data))

	require.Error(t, json.Unmarshal([]byte(`{"scheme":"zk"}`), &out))
}

func TestLayerText(t *testing.T) {
	for _, l := range []Layer{L1, L2} {
		text, err := l.MarshalText()
		require.NoError(t, err)
		var out Layer
		require.NoError(t, out.UnmarshalText(text))
		require.Equal(t, l, out)
	}
	var out Layer
	require.Error(t, out.UnmarshalText([]byte("l3")))
}
