// Package record persists completed actions to a sqlite episode store so
// policy code can audit runs after the fact. Frame payloads are stored as
// zstd-compressed JSON blobs.
package record

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  label TEXT NOT NULL,
  started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS actions (
  episode_id INTEGER NOT NULL,
  seq INTEGER NOT NULL,
  frame INTEGER NOT NULL,
  kind TEXT NOT NULL,
  status TEXT NOT NULL,
  arm TEXT,
  object_id INTEGER,
  payload BLOB,
  PRIMARY KEY (episode_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_actions_episode ON actions(episode_id);
`

// Action is one completed avatar action.
type Action struct {
	Seq      int
	Frame    uint64
	Kind     string
	Status   string
	Arm      string
	ObjectID int
	Payload  []byte
}

// Store wraps the sqlite database plus a shared zstd codec pair.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder

	seq map[int64]int
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec, seq: make(map[int64]int)}, nil
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// BeginEpisode opens a new episode and returns its id.
func (s *Store) BeginEpisode(label string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO episodes(label, started_at) VALUES(?, ?)`,
		label, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("begin episode: %w", err)
	}
	return res.LastInsertId()
}

// RecordAction appends one action to an episode. Seq is assigned here.
func (s *Store) RecordAction(episodeID int64, a Action) error {
	a.Seq = s.seq[episodeID]
	s.seq[episodeID]++
	var blob []byte
	if len(a.Payload) > 0 {
		blob = s.enc.EncodeAll(a.Payload, nil)
	}
	_, err := s.db.Exec(
		`INSERT INTO actions(episode_id, seq, frame, kind, status, arm, object_id, payload)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		episodeID, a.Seq, a.Frame, a.Kind, a.Status, a.Arm, a.ObjectID, blob)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// Episode is one row of the episodes table.
type Episode struct {
	ID        int64
	Label     string
	StartedAt string
}

func (s *Store) Episodes() ([]Episode, error) {
	rows, err := s.db.Query(`SELECT id, label, started_at FROM episodes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.Label, &e.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Actions returns an episode's actions in order, payloads decompressed.
func (s *Store) Actions(episodeID int64) ([]Action, error) {
	rows, err := s.db.Query(
		`SELECT seq, frame, kind, status, arm, object_id, payload
		 FROM actions WHERE episode_id = ? ORDER BY seq`, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Action
	for rows.Next() {
		var a Action
		var blob []byte
		if err := rows.Scan(&a.Seq, &a.Frame, &a.Kind, &a.Status, &a.Arm, &a.ObjectID, &blob); err != nil {
			return nil, err
		}
		if len(blob) > 0 {
			a.Payload, err = s.dec.DecodeAll(blob, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress action %d/%d: %w", episodeID, a.Seq, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
