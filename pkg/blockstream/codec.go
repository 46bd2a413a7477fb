package blockstream

import (
	"encoding/binary"
	"encoding/json"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// key layout: "b" || big-endian uint32 height. The "b" prefix leaves room
// for other key families in the same partition file without collision.
func heightKey(height uint32) []byte {
	key := make([]byte, 5)
	key[0] = 'b'
	binary.BigEndian.PutUint32(key[1:], height)
	return key
}

func decodeHeightKey(key []byte) (uint32, bool) {
	if len(key) != 5 || key[0] != 'b' {
		return 0, false
	}
	return binary.BigEndian.Uint32(key[1:]), true
}

func encodeBlock(b chainmodel.Block) ([]byte, error) {
	return json.Marshal(b)
}

func decodeBlock(data []byte) (chainmodel.Block, error) {
	var b chainmodel.Block
	err := json.Unmarshal(data, &b)
	return b, err
}
