package kvstore

import (
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const (
	dbFileName     = "storage_db.db"
	filesBucket    = "files"
	metaBucket     = "meta"
	reservedPrefix = ".storage_db"
)

// isPrivate reports whether name is a reserved entry the backend owns and
// must never enumerate.
func isPrivate(name string) bool {
	return name == dbFileName || len(name) >= len(reservedPrefix) && name[:len(reservedPrefix)] == reservedPrefix
}

// openDB idempotently opens (or returns the already-open) bbolt handle for
// b, creating the files/meta buckets on first open. A directory's
// file-content xattr records share filesBucket with its regular file
// records, the same keyspace. Database handle open failures are
// recoverable: the caller just retries on the next op.
func openDB(b *bctx) (*bbolt.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		return b.db, nil
	}
	db, err := bbolt.Open(b.dbPath(), 0644, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "kvstore: opening %s", b.dbPath())
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [...]string{filesBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "kvstore: initializing buckets")
	}
	b.db = db
	return db, nil
}

// closeDB closes b's database handle if open. Idempotent.
func closeDB(b *bctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// getRecord fetches the bytes stored under bucket/key, returning
// (nil, bbolt.ErrBucketNotFound)-shaped errors translated by callers via
// xlatorerr.FromStorage.
func getRecord(db *bbolt.DB, bucket, key string) ([]byte, error) {
	var out []byte
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return errRecordNotFound
		}
		out = append(out, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// putRecord writes bytes under bucket/key, creating the bucket if absent.
func putRecord(db *bbolt.DB, bucket, key string, data []byte) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// deleteRecord removes bucket/key, returning errRecordNotFound when the
// bucket or the key is absent.
func deleteRecord(db *bbolt.DB, bucket, key string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errRecordNotFound
		}
		if b.Get([]byte(key)) == nil {
			return errRecordNotFound
		}
		return b.Delete([]byte(key))
	})
}

// hasRecord reports whether bucket/key exists.
func hasRecord(db *bbolt.DB, bucket, key string) bool {
	found := false
	_ = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		found = b.Get([]byte(key)) != nil
		return nil
	})
	return found
}

// listKeys returns every key in bucket in cursor order, used by
// readdir/getdents and checksum.
func listKeys(db *bbolt.DB, bucket string) ([]string, error) {
	var keys []string
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// errRecordNotFound is a sentinel distinct from bbolt's own not-found
// signaling (bbolt returns nil, not an error, for a missing key) so
// xlatorerr.FromStorage can map it to ENOENT uniformly.
var errRecordNotFound = errors.New("kvstore: record not found")

// moveRecord performs the rename transactional contract: within a single
// bbolt transaction, read the old record, delete it, and put it under the
// new bucket/key. Commit on success, abort (bbolt does this automatically
// on a returned error) on any intermediate failure.
func moveRecord(oldDB *bbolt.DB, oldBucket, oldKey string, newDB *bbolt.DB, newBucket, newKey string) error {
	if oldDB == newDB {
		return oldDB.Update(func(tx *bbolt.Tx) error {
			ob := tx.Bucket([]byte(oldBucket))
			if ob == nil {
				return errRecordNotFound
			}
			val := ob.Get([]byte(oldKey))
			if val == nil {
				return errRecordNotFound
			}
			data := append([]byte(nil), val...)
			if err := ob.Delete([]byte(oldKey)); err != nil {
				return err
			}
			nb, err := tx.CreateBucketIfNotExists([]byte(newBucket))
			if err != nil {
				return err
			}
			return nb.Put([]byte(newKey), data)
		})
	}
	// Cross-directory rename spans two database files; bbolt transactions
	// are per-file, so this is staged as read -> put -> delete with the put
	// committed first: commit on success, abort on any intermediate failure,
	// at record granularity rather than true cross-file atomicity (bbolt
	// offers none; see DESIGN.md).
	data, err := getRecord(oldDB, oldBucket, oldKey)
	if err != nil {
		return err
	}
	if err := putRecord(newDB, newBucket, newKey, data); err != nil {
		return err
	}
	return deleteRecord(oldDB, oldBucket, oldKey)
}
