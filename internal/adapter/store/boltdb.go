package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"pharmadoc/internal/domain"
)

var (
	bucketMeta     = []byte("meta")
	bucketSegments = []byte("segments")
	bucketVectors  = []byte("vectors")

	keySchema = []byte("schema")
	keyIndex  = []byte("index")
)

// BoltStore keeps one index snapshot in a bbolt file. Segment and vector keys
// are big-endian sequence numbers, so cursor order is insertion order.
type BoltStore struct {
	db *bbolt.DB
}

type storedSegment struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   *int   `json:"page,omitempty"`
	Offset int    `json:"offset"`
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketSegments, bucketVectors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *BoltStore) Save(ctx context.Context, meta domain.IndexMeta, entries []domain.IndexEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSegments, bucketVectors} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		segments := tx.Bucket(bucketSegments)
		vectors := tx.Bucket(bucketVectors)

		for i, e := range entries {
			if i%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			key := seqKey(uint64(i))
			data, err := json.Marshal(storedSegment(e.Segment))
			if err != nil {
				return err
			}
			if err := segments.Put(key, data); err != nil {
				return err
			}
			if err := vectors.Put(key, encodeVector(e.Vector)); err != nil {
				return err
			}
		}

		return putMeta(tx.Bucket(bucketMeta), meta)
	})
}

func putMeta(b *bbolt.Bucket, meta domain.IndexMeta) error {
	schema, err := json.Marshal(SchemaInfo{Version: CurrentSchemaVersion, ConfigHash: meta.ConfigHash})
	if err != nil {
		return err
	}
	if err := b.Put(keySchema, schema); err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return b.Put(keyIndex, data)
}

func (s *BoltStore) Load(ctx context.Context) (domain.IndexMeta, []domain.IndexEntry, error) {
	var meta domain.IndexMeta
	var entries []domain.IndexEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		data := b.Get(keyIndex)
		if data == nil {
			return domain.ErrIndexNotBuilt
		}
		var info SchemaInfo
		if err := json.Unmarshal(b.Get(keySchema), &info); err != nil {
			return fmt.Errorf("decode schema info: %w", err)
		}
		if err := checkSchema(info); err != nil {
			return err
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("decode index meta: %w", err)
		}

		vectors := tx.Bucket(bucketVectors)
		c := tx.Bucket(bucketSegments).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var seg storedSegment
			if err := json.Unmarshal(v, &seg); err != nil {
				return fmt.Errorf("decode segment %x: %w", k, err)
			}
			vec, err := decodeVector(vectors.Get(k))
			if err != nil {
				return fmt.Errorf("decode vector %x: %w", k, err)
			}
			entries = append(entries, domain.IndexEntry{Vector: vec, Segment: domain.Segment(seg)})
		}
		return nil
	})
	if err != nil {
		return domain.IndexMeta{}, nil, err
	}
	return meta, entries, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
