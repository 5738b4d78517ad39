package fvm

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/fvm/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// Log is an event emitted by a LOG instruction.
// The RLP encoding is the list [address, topics, data].
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// NewLog copies topics and data into a new Log.
func NewLog(address common.Address, topics []common.Hash, data []byte) *Log {
	l := &Log{
		Address: address,
		Topics:  append([]common.Hash{}, topics...),
		Data:    append([]byte{}, data...),
	}
	return l
}

// Hash is the Keccak256 of the RLP encoding.
func (l *Log) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(l)
	if err != nil {
		return common.Hash{}
	}
	return common.Keccak256(enc)
}

func (l *Log) String() string {
	return fmt.Sprintf("Log{address=%s topics=%d data=%x}", l.Address.Hex(), len(l.Topics), l.Data)
}

// EncodeLogs returns the RLP encoding of a list of logs.
func EncodeLogs(logs []*Log) ([]byte, error) {
	return rlp.EncodeToBytes(logs)
}

// DecodeLogs parses the output of EncodeLogs.
func DecodeLogs(data []byte) ([]*Log, error) {
	var logs []*Log
	if err := rlp.DecodeBytes(data, &logs); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return logs, nil
}

type logJSON struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

func (l Log) MarshalJSON() ([]byte, error) {
	topics := l.Topics
	if topics == nil {
		topics = []common.Hash{}
	}
	return json.Marshal(logJSON{Address: l.Address, Topics: topics, Data: l.Data})
}

func (l *Log) UnmarshalJSON(data []byte) error {
	var dec logJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	l.Address = dec.Address
	l.Topics = dec.Topics
	l.Data = dec.Data
	return nil
}
