package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Images table - maps each expression label to its uploaded image
		`CREATE TABLE IF NOT EXISTS images (
			label TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Presets table - named snapshots of a label-to-image table
		`CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			total_images INTEGER NOT NULL DEFAULT 0
		)`,

		// Preset entries table - the label bindings captured by a preset
		`CREATE TABLE IF NOT EXISTS preset_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			preset_name TEXT NOT NULL REFERENCES presets(name) ON DELETE CASCADE,
			label TEXT NOT NULL,
			path TEXT NOT NULL,
			UNIQUE(preset_name, label)
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_preset_entries_preset_name ON preset_entries(preset_name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
