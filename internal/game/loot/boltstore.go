package loot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"
)

var bucketLoot = []byte("stored_loot")

// BoltStore keeps generated loot in a bbolt file keyed by the container
// item's durable counter.
type BoltStore struct {
	db *bbolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("lootstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLoot)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("lootstore: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func lootKey(counter uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], counter)
	return k[:]
}

func (s *BoltStore) Load(counter uint64) (*Loot, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketLoot).Get(lootKey(counter)); v != nil {
			raw = append(raw, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	var l Loot
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, false, fmt.Errorf("lootstore: decode %d: %w", counter, err)
	}
	return &l, true, nil
}

func (s *BoltStore) Persist(l *Loot) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketLoot).Put(lootKey(l.ContainerCounter), raw)
	})
}

func (s *BoltStore) Delete(counter uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketLoot).Delete(lootKey(counter))
	})
}
