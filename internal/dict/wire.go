package dict

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Wire codec for dicts carried as RPC/getspec argument transport. Kept
// separate from the in-memory options map: config option dicts never
// round-trip through this codec, only fop/mop argument dicts do.
//
// Format: uint32 count, then per entry: uint32 keylen, key bytes, uint32
// vallen, value bytes.

// Encode serializes d deterministically (sorted keys) for wire transport.
func Encode(d *Dict) []byte {
	var buf bytes.Buffer
	keys := d.SortedKeys()
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(keys)))
	for _, k := range keys {
		v, _ := d.Get(k)
		writeLP(&buf, []byte(k))
		writeLP(&buf, v.Bytes)
	}
	return buf.Bytes()
}

func writeLP(buf *bytes.Buffer, b []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(b)))
	buf.Write(b)
}

// Decode parses bytes produced by Encode into a fresh ref-count-1 dict.
func Decode(data []byte) (*Dict, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, errors.Wrap(err, "dict: decode count")
	}
	d := New()
	for i := uint32(0); i < count; i++ {
		key, err := readLP(r)
		if err != nil {
			return nil, errors.Wrap(err, "dict: decode key")
		}
		val, err := readLP(r)
		if err != nil {
			return nil, errors.Wrap(err, "dict: decode value")
		}
		d.Set(string(key), &Value{Bytes: val})
	}
	return d, nil
}

func readLP(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
