package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteStore implements RecordStore and SyncQueue on an embedded
// sqlite database. Records and queue entries live in separate tables so
// queue draining can never corrupt the record collection.
//
// Known limitation: multiple processes (or browser-tab equivalents)
// writing the same database file are not coordinated beyond sqlite's
// own file locking. This store assumes a single writer process.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

// Migrate brings the schema up to date.
func (s *SQLiteStore) Migrate() error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	if err := goose.Up(s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const recordColumns = `id, user_id, course_id, title, level, payment_amount, payment_method,
		payment_status, contact_details, enrolled_at, completed_units, total_units,
		percent_complete, certificate_issued, certificate_issued_at, sync_state,
		remote_id, updated_at`

func scanRecord(row interface{ Scan(...interface{}) error }) (*models.EnrollmentRecord, error) {
	var (
		rec           models.EnrollmentRecord
		unitsJSON     string
		certIssuedAt  sql.NullTime
		remoteID      sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.CourseID,
		&rec.Title,
		&rec.Level,
		&rec.PaymentAmount,
		&rec.PaymentMethod,
		&rec.PaymentStatus,
		&rec.ContactDetails,
		&rec.EnrolledAt,
		&unitsJSON,
		&rec.Progress.TotalUnits,
		&rec.Progress.PercentComplete,
		&rec.CertificateIssued,
		&certIssuedAt,
		&rec.SyncState,
		&remoteID,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(unitsJSON), &rec.Progress.CompletedUnits); err != nil {
		return nil, fmt.Errorf("failed to decode completed units: %w", err)
	}
	if certIssuedAt.Valid {
		t := certIssuedAt.Time
		rec.CertificateIssuedAt = &t
	}
	if remoteID.Valid {
		rec.RemoteID = remoteID.String
	}

	return &rec, nil
}

// GetAll returns all records for a user.
func (s *SQLiteStore) GetAll(ctx context.Context, userID string) ([]*models.EnrollmentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM enrollments WHERE user_id = ?`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query enrollments", err)
	}
	defer rows.Close()

	var records []*models.EnrollmentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to scan enrollment", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("error iterating enrollments", err)
	}

	return records, nil
}

// Find returns the record for (userID, courseID), or nil when absent.
func (s *SQLiteStore) Find(ctx context.Context, userID, courseID string) (*models.EnrollmentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM enrollments WHERE user_id = ? AND course_id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, userID, courseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to find enrollment", err)
	}

	return rec, nil
}

// Upsert inserts or merges a record. The merge preserves EnrolledAt,
// keeps the higher-ranked sync state, keeps an existing remote id
// unless the caller supplies one, never unsets CertificateIssued, and
// keeps earned progress when the incoming record carries none (a
// re-enrollment attempt must not reset completed units).
func (s *SQLiteStore) Upsert(ctx context.Context, rec *models.EnrollmentRecord) (*models.EnrollmentRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + recordColumns + ` FROM enrollments WHERE user_id = ? AND course_id = ?`
	existing, err := scanRecord(tx.QueryRowContext(ctx, query, rec.UserID, rec.CourseID))
	if err != nil && err != sql.ErrNoRows {
		return nil, apperrors.NewStorageError("failed to read existing enrollment", err)
	}

	merged := *rec
	if existing != nil {
		merged.ID = existing.ID
		merged.EnrolledAt = existing.EnrolledAt
		if merged.SyncState.Rank() < existing.SyncState.Rank() {
			merged.SyncState = existing.SyncState
		}
		if merged.RemoteID == "" {
			merged.RemoteID = existing.RemoteID
		}
		if existing.CertificateIssued {
			merged.CertificateIssued = true
			if merged.CertificateIssuedAt == nil {
				merged.CertificateIssuedAt = existing.CertificateIssuedAt
			}
		}
		if len(merged.Progress.CompletedUnits) == 0 {
			merged.Progress.CompletedUnits = existing.Progress.CompletedUnits
		}
		if merged.Progress.TotalUnits == 0 {
			merged.Progress.TotalUnits = existing.Progress.TotalUnits
		}
		merged.Progress.PercentComplete = models.ComputePercent(
			len(merged.Progress.CompletedUnits), merged.Progress.TotalUnits)
	}
	if merged.SyncState == "" {
		merged.SyncState = models.SyncStateUnsynced
	}
	if merged.Progress.CompletedUnits == nil {
		merged.Progress.CompletedUnits = []string{}
	}
	merged.UpdatedAt = time.Now().UTC()

	unitsJSON, err := json.Marshal(merged.Progress.CompletedUnits)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to encode completed units", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrollments (id, user_id, course_id, title, level, payment_amount,
			payment_method, payment_status, contact_details, enrolled_at, completed_units,
			total_units, percent_complete, certificate_issued, certificate_issued_at,
			sync_state, remote_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			title = excluded.title,
			level = excluded.level,
			payment_amount = excluded.payment_amount,
			payment_method = excluded.payment_method,
			payment_status = excluded.payment_status,
			contact_details = excluded.contact_details,
			completed_units = excluded.completed_units,
			total_units = excluded.total_units,
			percent_complete = excluded.percent_complete,
			certificate_issued = excluded.certificate_issued,
			certificate_issued_at = excluded.certificate_issued_at,
			sync_state = excluded.sync_state,
			remote_id = excluded.remote_id,
			updated_at = excluded.updated_at`,
		merged.ID,
		merged.UserID,
		merged.CourseID,
		merged.Title,
		merged.Level,
		merged.PaymentAmount,
		merged.PaymentMethod,
		merged.PaymentStatus,
		merged.ContactDetails,
		merged.EnrolledAt,
		string(unitsJSON),
		merged.Progress.TotalUnits,
		merged.Progress.PercentComplete,
		merged.CertificateIssued,
		nullableTime(merged.CertificateIssuedAt),
		merged.SyncState,
		nullableString(merged.RemoteID),
		merged.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to upsert enrollment", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewStorageError("failed to commit upsert", err)
	}

	return &merged, nil
}

// UpdateSyncMetadata promotes a record's sync state. Lower-ranked states
// never overwrite higher ones, so a failed pass cannot regress a record.
func (s *SQLiteStore) UpdateSyncMetadata(ctx context.Context, key models.EnrollmentKey, state models.SyncState, remoteID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var current models.SyncState
	err = tx.QueryRowContext(ctx,
		"SELECT sync_state FROM enrollments WHERE user_id = ? AND course_id = ?",
		key.UserID, key.CourseID).Scan(&current)
	if err == sql.ErrNoRows {
		return apperrors.NewEnrollmentNotFoundError(key.UserID, key.CourseID)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to read sync state", err)
	}

	if state.Rank() < current.Rank() {
		state = current
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE enrollments
		SET sync_state = ?,
			remote_id = COALESCE(NULLIF(?, ''), remote_id),
			updated_at = ?
		WHERE user_id = ? AND course_id = ?`,
		state, remoteID, time.Now().UTC(), key.UserID, key.CourseID)
	if err != nil {
		return apperrors.NewStorageError("failed to update sync metadata", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit sync metadata", err)
	}

	return nil
}

// ClearAll destroys every record. Test fixtures only.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM enrollments"); err != nil {
		return apperrors.NewStorageError("failed to clear enrollments", err)
	}
	return nil
}

// Enqueue adds or replaces the queue entry for the entry's key.
func (s *SQLiteStore) Enqueue(ctx context.Context, entry *models.SyncQueueEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return apperrors.NewStorageError("failed to encode queue payload", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (user_id, course_id, payload, enqueued_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		entry.UserID, entry.CourseID, string(payload), now, now)
	if err != nil {
		return apperrors.NewStorageError("failed to enqueue sync entry", err)
	}

	return nil
}

type queueRow struct {
	UserID     string    `db:"user_id"`
	CourseID   string    `db:"course_id"`
	Payload    string    `db:"payload"`
	EnqueuedAt time.Time `db:"enqueued_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DrainSnapshot returns the queued entries without mutating the queue.
func (s *SQLiteStore) DrainSnapshot(ctx context.Context) ([]*models.SyncQueueEntry, error) {
	var rows []queueRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT user_id, course_id, payload, enqueued_at, updated_at FROM sync_queue ORDER BY enqueued_at")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to snapshot sync queue", err)
	}

	entries := make([]*models.SyncQueueEntry, 0, len(rows))
	for _, row := range rows {
		entry := &models.SyncQueueEntry{
			UserID:     row.UserID,
			CourseID:   row.CourseID,
			EnqueuedAt: row.EnqueuedAt,
			UpdatedAt:  row.UpdatedAt,
		}
		if err := json.Unmarshal([]byte(row.Payload), &entry.Payload); err != nil {
			return nil, apperrors.NewStorageError("failed to decode queue payload", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Remove deletes exactly the given keys. Entries enqueued after a
// snapshot survive; removal is always by key, never by truncation.
func (s *SQLiteStore) Remove(ctx context.Context, keys []models.EnrollmentKey) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM sync_queue WHERE user_id = ? AND course_id = ?")
	if err != nil {
		return apperrors.NewStorageError("failed to prepare queue removal", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key.UserID, key.CourseID); err != nil {
			return apperrors.NewStorageError("failed to remove queue entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit queue removal", err)
	}

	return nil
}

// Size returns the number of queued entries.
func (s *SQLiteStore) Size(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sync_queue"); err != nil {
		return 0, apperrors.NewStorageError("failed to count sync queue", err)
	}
	return count, nil
}

// SizeForUser returns the number of queued entries for one user.
func (s *SQLiteStore) SizeForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sync_queue WHERE user_id = ?", userID)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to count sync queue", err)
	}
	return count, nil
}

// ClearQueue destroys every entry. Test fixtures only.
func (s *SQLiteStore) ClearQueue(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sync_queue"); err != nil {
		return apperrors.NewStorageError("failed to clear sync queue", err)
	}
	return nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
