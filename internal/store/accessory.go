package store

import (
	"database/sql"
	"errors"
	"time"
)

// Accessory is the persisted configuration of one overlay accessory.
type Accessory struct {
	Name      string    `json:"name"`
	AssetPath string    `json:"asset_path"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccessoryRepository provides access to accessory settings.
type AccessoryRepository struct {
	db *sql.DB
}

// Accessories returns the accessory repository for this store.
func (s *Store) Accessories() *AccessoryRepository {
	return &AccessoryRepository{db: s.db}
}

// EnsureDefaults inserts an enabled row for every name that has none yet.
// Existing rows are left alone.
func (r *AccessoryRepository) EnsureDefaults(names ...string) error {
	for _, name := range names {
		_, err := r.db.Exec(
			`INSERT OR IGNORE INTO accessories (name, asset_path, enabled, updated_at)
			 VALUES (?, '', 1, ?)`,
			name, time.Now(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Upsert creates or replaces an accessory row.
func (r *AccessoryRepository) Upsert(a *Accessory) error {
	a.UpdatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO accessories (name, asset_path, enabled, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			asset_path = excluded.asset_path,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		a.Name, a.AssetPath, a.Enabled, a.UpdatedAt,
	)
	return err
}

// Get retrieves an accessory by name.
func (r *AccessoryRepository) Get(name string) (*Accessory, error) {
	a := &Accessory{}

	err := r.db.QueryRow(
		`SELECT name, asset_path, enabled, updated_at FROM accessories WHERE name = ?`,
		name,
	).Scan(&a.Name, &a.AssetPath, &a.Enabled, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return a, nil
}

// List retrieves all accessories ordered by name.
func (r *AccessoryRepository) List() ([]*Accessory, error) {
	rows, err := r.db.Query(
		`SELECT name, asset_path, enabled, updated_at FROM accessories ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accessories []*Accessory
	for rows.Next() {
		a := &Accessory{}
		if err := rows.Scan(&a.Name, &a.AssetPath, &a.Enabled, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accessories = append(accessories, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accessories, nil
}

// SetEnabled updates the enabled flag of an existing accessory.
func (r *AccessoryRepository) SetEnabled(name string, enabled bool) error {
	result, err := r.db.Exec(
		`UPDATE accessories SET enabled = ?, updated_at = ? WHERE name = ?`,
		enabled, time.Now(), name,
	)
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
