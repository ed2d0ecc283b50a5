package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sosajseba/dirty-minded-socket/game"
)

const roomBucket = "rooms"

// BoltStore is a BoltDB-backed RoomStore: one bucket, one JSON
// document per room keyed by roomID.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the store at the given path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open room store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(roomBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create room bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(roomID string) (*game.Room, error) {
	var payload []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket([]byte(roomBucket)).Get([]byte(roomID)); raw != nil {
			payload = append(payload, raw...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	if payload == nil {
		return nil, ErrNotFound
	}

	var room game.Room
	if err := json.Unmarshal(payload, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room %s: %w", roomID, err)
	}
	return &room, nil
}

func (s *BoltStore) Save(room *game.Room) error {
	payload, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.RoomID, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(roomBucket)).Put([]byte(room.RoomID), payload)
	})
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.RoomID, err)
	}
	return nil
}

func (s *BoltStore) Delete(roomID string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(roomBucket)).Delete([]byte(roomID))
	})
	if err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}
