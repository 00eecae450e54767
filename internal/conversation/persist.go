package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"bgc-assistant/internal/memory"
)

var (
	conversationsBucket = []byte("conversations")
	stateBucket         = []byte("state")
	activeKey           = []byte("active")
)

// SaveSnapshot writes every conversation log to a bbolt file. Memories are
// not written; they are rebuilt from the logs by Load.
func (s *Store) SaveSnapshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bolt.Tx) error {
		// Recreate the bucket so the file mirrors the store exactly.
		if tx.Bucket(conversationsBucket) != nil {
			if err := tx.DeleteBucket(conversationsBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(conversationsBucket)
		if err != nil {
			return err
		}
		for id, conv := range s.conversations {
			enc, err := json.Marshal(conv)
			if err != nil {
				return fmt.Errorf("failed to marshal conversation %s: %w", id, err)
			}
			if err := b.Put([]byte(id), enc); err != nil {
				return err
			}
		}

		st, err := tx.CreateBucketIfNotExists(stateBucket)
		if err != nil {
			return err
		}
		return st.Put(activeKey, []byte(s.active))
	})
}

// RestoreSnapshot replaces the store content with the logs found in path.
// A missing file leaves the store empty. Restored conversations have no
// memory until they are loaded.
func (s *Store) RestoreSnapshot(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.Reset()
		return nil
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer func() { _ = db.Close() }()

	conversations := map[string]*Conversation{}
	var active string
	err = db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(conversationsBucket); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				var conv Conversation
				if err := json.Unmarshal(v, &conv); err != nil {
					// Skip malformed entries instead of failing the whole restore
					log.WithError(err).WithField("conversation", string(k)).Warn("skipping malformed conversation")
					return nil
				}
				if conv.Messages == nil {
					conv.Messages = []Message{}
				}
				conversations[string(k)] = &conv
				return nil
			}); err != nil {
				return err
			}
		}
		if st := tx.Bucket(stateBucket); st != nil {
			active = string(st.Get(activeKey))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	s.conversations = conversations
	s.memories = map[string]*memory.Memory{}
	s.active = ""
	if _, ok := conversations[active]; ok {
		s.active = active
	}
	return nil
}
