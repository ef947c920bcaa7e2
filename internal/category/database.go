package category

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "categories"

// BoltDB is a read-mostly category store backed by BoltDB. Keys are
// big-endian ids so iteration follows creation order.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens the store and seeds Defaults when it holds no categories.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		if k, _ := bucket.Cursor().First(); k != nil {
			return nil
		}
		for _, c := range Defaults() {
			if err := putCategory(bucket, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding categories: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveCategory stores c, assigning an id when it has none.
func (b *BoltDB) SaveCategory(c *Category) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putCategory(tx.Bucket([]byte(bucketName)), c)
	})
}

func putCategory(bucket *bbolt.Bucket, c *Category) error {
	if c.ID == 0 {
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating category id: %w", err)
		}
		c.ID = int64(seq)
	} else if uint64(c.ID) > bucket.Sequence() {
		if err := bucket.SetSequence(uint64(c.ID)); err != nil {
			return fmt.Errorf("advancing category sequence: %w", err)
		}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling category: %w", err)
	}
	return bucket.Put(idKey(c.ID), data)
}

// ListCategories returns all categories, active or not, ordered by id.
func (b *BoltDB) ListCategories() ([]*Category, error) {
	categories := make([]*Category, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var c Category
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("unmarshaling category: %w", err)
			}
			categories = append(categories, &c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func idKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
