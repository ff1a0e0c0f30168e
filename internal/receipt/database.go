package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName = "receipts"
	keyPrefix  = "receipt_"
	draftKey   = "receipt_draft"
)

// DB defines the key-value persistence boundary for receipts. Published
// receipts live under receipt_<id>; the host's in-progress receipt lives
// under receipt_draft.
type DB interface {
	// SaveReceipt persists a published receipt under its ID.
	SaveReceipt(r *Receipt) error

	// GetReceipt retrieves a receipt by ID. Returns a NotFoundError if
	// absent.
	GetReceipt(id string) (*Receipt, error)

	// DeleteReceipt removes a receipt.
	DeleteReceipt(id string) error

	// ListReceipts returns all published receipts.
	ListReceipts() ([]*Receipt, error)

	// SaveDraft persists the host's in-progress receipt.
	SaveDraft(r *Receipt) error

	// GetDraft retrieves the draft, or nil if none exists.
	GetDraft() (*Receipt, error)

	// DeleteDraft removes the draft. Removing an absent draft is a no-op.
	DeleteDraft() error

	// Close releases any resources held by the store.
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveReceipt persists a receipt under receipt_<id>.
func (b *BoltDB) SaveReceipt(r *Receipt) error {
	return b.put(keyPrefix+r.ID, r)
}

// GetReceipt retrieves a receipt by ID.
func (b *BoltDB) GetReceipt(id string) (*Receipt, error) {
	r, err := b.get(keyPrefix + id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NotFoundError{Kind: "receipt", ID: id}
	}
	return r, nil
}

// DeleteReceipt removes a receipt from the store.
func (b *BoltDB) DeleteReceipt(id string) error {
	return b.delete(keyPrefix + id)
}

// ListReceipts returns all published receipts by prefix scan. The draft key
// shares the prefix and is skipped.
func (b *BoltDB) ListReceipts() ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		prefix := []byte(keyPrefix)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if string(k) == draftKey {
				continue
			}
			var r Receipt
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshaling receipt %s: %w", k, err)
			}
			receipts = append(receipts, &r)
		}
		return nil
	})
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return receipts, nil
}

// SaveDraft persists the host's in-progress receipt.
func (b *BoltDB) SaveDraft(r *Receipt) error {
	return b.put(draftKey, r)
}

// GetDraft retrieves the draft receipt, or nil if none exists.
func (b *BoltDB) GetDraft() (*Receipt, error) {
	return b.get(draftKey)
}

// DeleteDraft removes the draft receipt.
func (b *BoltDB) DeleteDraft() error {
	return b.delete(draftKey)
}

// Close closes the database.
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func (b *BoltDB) put(key string, r *Receipt) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
	if err != nil {
		return &StorageError{Op: "set", Err: err}
	}
	return nil
}

func (b *BoltDB) get(key string) (*Receipt, error) {
	var r *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &r)
	})
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return r, nil
}

func (b *BoltDB) delete(key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
	if err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	return nil
}
