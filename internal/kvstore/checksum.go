package kvstore

import (
	"os"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/xlator"
)

// checksumSize matches original_source/xlators/storage/bdb/src/bdb.c's
// fixed-size directory checksum buffer: every entry name is XORed byte by
// byte into one page-sized buffer so two directories with the same
// members in a different order produce the same checksum.
const checksumSize = 4096

// checksumOp XORs every host entry name into one buffer and every KV
// record key into a second, returning both as a dict; the original bdb
// translator keeps a namespace checksum and a data checksum side by side
// for exactly this reason.
func (k *KV) checksumOp(req *xlator.PathRequest) xlator.Result {
	hostPath := k.hostPath(req.Path)
	entries, err := os.ReadDir(hostPath)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	var nameSum [checksumSize]byte
	for _, e := range entries {
		if isPrivate(e.Name()) {
			continue
		}
		xorInto(&nameSum, e.Name())
	}

	b := k.table.get(hostPath)
	defer k.table.release(b)
	var dataSum [checksumSize]byte
	if db, err := openDB(b); err == nil {
		keys, _ := listKeys(db, filesBucket)
		for _, key := range keys {
			xorInto(&dataSum, key)
		}
	}

	d := dict.New()
	d.Set("namespace-checksum", &dict.Value{Bytes: nameSum[:]})
	d.Set("data-checksum", &dict.Value{Bytes: dataSum[:]})
	return xlator.Result{Dict: d}
}

func xorInto(buf *[checksumSize]byte, s string) {
	for i := 0; i < len(s); i++ {
		buf[i%checksumSize] ^= s[i]
	}
}

// checksumMop is the management-op form, reporting the export root's own
// checksum (used by self-heal/replication translators stacked above this
// leaf, not exercised directly by this package's tests).
func (k *KV) checksumMop() xlator.Result {
	return k.checksumOp(&xlator.PathRequest{Path: ""})
}
