package store

import (
	"database/sql"
	"errors"
	"time"
)

// Preset is a named snapshot of a label-to-image table, with the metadata
// block the preset format requires.
type Preset struct {
	Name        string
	CreatedAt   time.Time
	TotalImages int
	Entries     map[string]string // label -> image path
}

// PresetRepository provides CRUD operations for presets.
type PresetRepository struct {
	db *sql.DB
}

// Presets returns the preset repository for this store.
func (s *Store) Presets() *PresetRepository {
	return &PresetRepository{db: s.db}
}

// Save stores a preset snapshot of the given bindings, overwriting any
// preset with the same name. The metadata row and the entries are written
// in one transaction.
func (r *PresetRepository) Save(name string, entries map[string]string) (*Preset, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created := time.Now()
	if _, err := tx.Exec(`DELETE FROM presets WHERE name = ?`, name); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		`INSERT INTO presets (name, created_at, total_images) VALUES (?, ?, ?)`,
		name, created, len(entries),
	); err != nil {
		return nil, err
	}

	for label, path := range entries {
		if _, err := tx.Exec(
			`INSERT INTO preset_entries (preset_name, label, path) VALUES (?, ?, ?)`,
			name, label, path,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p := &Preset{
		Name:        name,
		CreatedAt:   created,
		TotalImages: len(entries),
		Entries:     entries,
	}
	return p, nil
}

// Get retrieves a preset and its entries by name.
func (r *PresetRepository) Get(name string) (*Preset, error) {
	p := &Preset{Entries: make(map[string]string)}

	err := r.db.QueryRow(
		`SELECT name, created_at, total_images FROM presets WHERE name = ?`,
		name,
	).Scan(&p.Name, &p.CreatedAt, &p.TotalImages)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT label, path FROM preset_entries WHERE preset_name = ?`,
		name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var label, path string
		if err := rows.Scan(&label, &path); err != nil {
			return nil, err
		}
		p.Entries[label] = path
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves all preset metadata (without entries), newest first.
func (r *PresetRepository) List() ([]*Preset, error) {
	rows, err := r.db.Query(
		`SELECT name, created_at, total_images FROM presets ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p := &Preset{}
		if err := rows.Scan(&p.Name, &p.CreatedAt, &p.TotalImages); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return presets, nil
}

// Delete removes a preset by name. Its entries go with it via the
// cascade.
func (r *PresetRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM presets WHERE name = ?`, name)
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
