package services

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/latestcomment/go-interview-room/internal/models"
)

var ErrTranscriptNotFound = errors.New("transcript not found")

const transcriptPrefix = "transcript:"

// TranscriptService keeps finished sessions in badger. Session ids are
// UUIDv7 so keys sort by start time.
type TranscriptService struct {
	db *badger.DB
}

// OpenTranscriptService opens dir, or an in-memory store when dir is empty.
func OpenTranscriptService(dir string) (*TranscriptService, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(opts.WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, errors.Wrap(err, "open transcript store")
	}
	return &TranscriptService{db: db}, nil
}

func (s *TranscriptService) Close() error {
	return s.db.Close()
}

func (s *TranscriptService) Save(t models.Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(transcriptPrefix+t.SessionId), data)
	})
}

func (s *TranscriptService) Get(id string) (models.Transcript, error) {
	var t models.Transcript
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(transcriptPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTranscriptNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &t)
		})
	})
	return t, err
}

// List returns at most limit transcripts, newest first.
func (s *TranscriptService) List(limit int) ([]models.Transcript, error) {
	out := []models.Transcript{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(transcriptPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append([]byte(transcriptPrefix), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if len(out) == limit {
				break
			}
			var t models.Transcript
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &t)
			}); err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}
