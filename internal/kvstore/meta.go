package kvstore

import (
	"bytes"
	"encoding/binary"
	"time"

	"go.etcd.io/bbolt"
)

// recordMeta is the attribute record kept alongside a file's data in
// metaBucket, since a KV record's value holds only file content. Fixed
// width and encoded with encoding/binary so a bucket scan never needs to
// deserialize anything but the bytes it was given (no reflection, no
// schema version byte - this leaf owns both ends of the encoding).
type recordMeta struct {
	Mode               uint32
	UID, GID           uint32
	Size               int64
	Atime, Mtime, Ctime int64
}

func newRecordMeta(mode uint32) recordMeta {
	now := time.Now().Unix()
	return recordMeta{Mode: mode, Atime: now, Mtime: now, Ctime: now}
}

func (m recordMeta) encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, m)
	return buf.Bytes()
}

func decodeRecordMeta(data []byte) (recordMeta, error) {
	var m recordMeta
	err := binary.Read(bytes.NewReader(data), binary.BigEndian, &m)
	return m, err
}

func getMeta(db *bbolt.DB, key string) (recordMeta, error) {
	raw, err := getRecord(db, metaBucket, key)
	if err != nil {
		return recordMeta{}, err
	}
	return decodeRecordMeta(raw)
}

func putMeta(db *bbolt.DB, key string, m recordMeta) error {
	return putRecord(db, metaBucket, key, m.encode())
}
