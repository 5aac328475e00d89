// Package store persists transcription history in a local SQLite database.
package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one completed transcription as kept in history.
type Record struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Text             string    `json:"text"`
	Language         string    `json:"language"`
	SegmentCount     int       `json:"segment_count"`
	AudioDurationMS  int64     `json:"audio_duration_ms"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	Backend          string    `json:"backend"`
	ModelSize        string    `json:"model_size"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store wraps the history database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	s := &Store{db: sqlDB, log: logger.With("component", "store")}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcriptions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		text TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		segment_count INTEGER NOT NULL DEFAULT 0,
		audio_duration_ms INTEGER NOT NULL DEFAULT 0,
		processing_time_ms INTEGER NOT NULL DEFAULT 0,
		backend TEXT NOT NULL DEFAULT '',
		model_size TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at
		ON transcriptions (created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a record and returns it with ID and CreatedAt populated.
func (s *Store) Insert(rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO transcriptions
			(id, source, text, language, segment_count, audio_duration_ms, processing_time_ms, backend, model_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Text, rec.Language, rec.SegmentCount,
		rec.AudioDurationMS, rec.ProcessingTimeMS, rec.Backend, rec.ModelSize, rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	s.log.Debug("history record stored", "id", rec.ID, "source", rec.Source)
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, source, text, language, segment_count, audio_duration_ms, processing_time_ms, backend, model_size, created_at
		FROM transcriptions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Source, &rec.Text, &rec.Language, &rec.SegmentCount,
			&rec.AudioDurationMS, &rec.ProcessingTimeMS, &rec.Backend, &rec.ModelSize, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if records == nil {
		records = []Record{}
	}
	return records, rows.Err()
}

// Get returns a single record by ID; sql.ErrNoRows when absent.
func (s *Store) Get(id string) (Record, error) {
	var rec Record
	err := s.db.QueryRow(`
		SELECT id, source, text, language, segment_count, audio_duration_ms, processing_time_ms, backend, model_size, created_at
		FROM transcriptions WHERE id = ?`, id).Scan(
		&rec.ID, &rec.Source, &rec.Text, &rec.Language, &rec.SegmentCount,
		&rec.AudioDurationMS, &rec.ProcessingTimeMS, &rec.Backend, &rec.ModelSize, &rec.CreatedAt,
	)
	return rec, err
}

// Delete removes a record by ID.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM transcriptions WHERE id = ?", id)
	return err
}

// Count reports the total number of stored records.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transcriptions").Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
