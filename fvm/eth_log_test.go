package fvm

import (
	"encoding/json"
	"testing"

	"github.com/colorfulnotion/fvm/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRLPIsAddressTopicsDataList(t *testing.T) {
	l := NewLog(testAddr, []common.Hash{common.HexToHash("0x01")}, []byte{0xca, 0xfe})
	enc, err := rlp.EncodeToBytes(l)
	require.NoError(t, err)

	var raw []rlp.RawValue
	require.NoError(t, rlp.DecodeBytes(enc, &raw))
	assert.Len(t, raw, 3)

	logs, err := DecodeLogs(mustEncodeLogs(t, []*Log{l, l}))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, l.Address, logs[1].Address)
	assert.Equal(t, l.Topics, logs[1].Topics)
	assert.Equal(t, l.Data, logs[1].Data)
	assert.Equal(t, l.Hash(), logs[0].Hash())
}

func mustEncodeLogs(t *testing.T, logs []*Log) []byte {
	enc, err := EncodeLogs(logs)
	require.NoError(t, err)
	return enc
}

func TestNewLogCopiesInput(t *testing.T) {
	data := []byte{1, 2}
	l := NewLog(testAddr, nil, data)
	data[0] = 9
	assert.Equal(t, []byte{1, 2}, l.Data)
	assert.Empty(t, l.Topics)
}

func TestLogJSON(t *testing.T) {
	l := NewLog(testAddr, nil, []byte{0xab})
	out, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"`+testAddr.Hex()+`","topics":[],"data":"0xab"}`, string(out))

	var back Log
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, l.Data, back.Data)

	_, err = DecodeLogs([]byte{0xff})
	assert.Error(t, err)
}
