package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Snapshot records a composed frame saved to disk.
type Snapshot struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	HadFace    bool      `json:"had_face"`
	Placements int       `json:"placements"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// NewSnapshotID returns a fresh snapshot identifier.
func NewSnapshotID() string {
	return uuid.NewString()
}

// Create inserts a snapshot. An empty ID is filled in.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = NewSnapshotID()
	}
	snap.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, path, had_face, placements, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Path, snap.HadFace, snap.Placements, snap.CreatedAt,
	)
	return err
}

// GetByID retrieves a snapshot by its ID.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}

	err := r.db.QueryRow(
		`SELECT id, path, had_face, placements, created_at FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Path, &snap.HadFace, &snap.Placements, &snap.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return snap, nil
}

// List retrieves up to limit snapshots, newest first. A non-positive limit
// returns all of them.
func (r *SnapshotRepository) List(limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, path, had_face, placements, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Path, &snap.HadFace, &snap.Placements, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snaps, nil
}

// Delete removes a snapshot record. The image file is not touched.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
