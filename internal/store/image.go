package store

import (
	"database/sql"
	"errors"
	"time"
)

// ImageBinding associates an expression label with a stored image file.
type ImageBinding struct {
	Label      string
	Path       string
	UploadedAt time.Time
}

// ImageRepository provides CRUD operations for label-to-image bindings.
type ImageRepository struct {
	db *sql.DB
}

// Images returns the image repository for this store.
func (s *Store) Images() *ImageRepository {
	return &ImageRepository{db: s.db}
}

// Bind records the image for a label, replacing any previous binding.
func (r *ImageRepository) Bind(label, path string) error {
	_, err := r.db.Exec(
		`INSERT INTO images (label, path, uploaded_at) VALUES (?, ?, ?)
		 ON CONFLICT(label) DO UPDATE SET path = excluded.path, uploaded_at = excluded.uploaded_at`,
		label, path, time.Now(),
	)
	return err
}

// Get retrieves the binding for a label.
func (r *ImageRepository) Get(label string) (*ImageBinding, error) {
	b := &ImageBinding{}
	err := r.db.QueryRow(
		`SELECT label, path, uploaded_at FROM images WHERE label = ?`,
		label,
	).Scan(&b.Label, &b.Path, &b.UploadedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings ordered by label.
func (r *ImageRepository) List() ([]*ImageBinding, error) {
	rows, err := r.db.Query(
		`SELECT label, path, uploaded_at FROM images ORDER BY label`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*ImageBinding
	for rows.Next() {
		b := &ImageBinding{}
		if err := rows.Scan(&b.Label, &b.Path, &b.UploadedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bindings, nil
}

// Unbind removes the binding for a label.
func (r *ImageRepository) Unbind(label string) error {
	result, err := r.db.Exec(`DELETE FROM images WHERE label = ?`, label)
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

// Clear removes every binding. Used by preset loads with replace
// semantics.
func (r *ImageRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM images`)
	return err
}

// ReplaceAll clears the table and inserts the given bindings in one
// transaction.
func (r *ImageRepository) ReplaceAll(bindings map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM images`); err != nil {
		return err
	}

	now := time.Now()
	for label, path := range bindings {
		if _, err := tx.Exec(
			`INSERT INTO images (label, path, uploaded_at) VALUES (?, ?, ?)`,
			label, path, now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
