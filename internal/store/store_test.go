package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	// All four tables should exist after migrations
	tables := []string{"images", "presets", "preset_entries", "settings"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestImageRepository_BindGetUnbind(t *testing.T) {
	s := newTestStore(t)
	images := s.Images()

	if err := images.Bind("smiling", "uploads/smiling_abc.png"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	b, err := images.Get("smiling")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if b.Path != "uploads/smiling_abc.png" {
		t.Errorf("path = %q, want uploads/smiling_abc.png", b.Path)
	}
	if b.UploadedAt.IsZero() {
		t.Error("uploaded_at should be set")
	}

	// Re-binding replaces the previous image
	if err := images.Bind("smiling", "uploads/smiling_def.png"); err != nil {
		t.Fatalf("Bind() replace error = %v", err)
	}
	b, _ = images.Get("smiling")
	if b.Path != "uploads/smiling_def.png" {
		t.Errorf("path after rebind = %q, want uploads/smiling_def.png", b.Path)
	}

	if err := images.Unbind("smiling"); err != nil {
		t.Fatalf("Unbind() error = %v", err)
	}
	if _, err := images.Get("smiling"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after unbind error = %v, want ErrNotFound", err)
	}
	if err := images.Unbind("smiling"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unbind() missing error = %v, want ErrNotFound", err)
	}
}

func TestImageRepository_ListAndReplaceAll(t *testing.T) {
	s := newTestStore(t)
	images := s.Images()

	images.Bind("smiling", "a.png")
	images.Bind("thumbs_up", "b.png")

	bindings, err := images.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("List() returned %d bindings, want 2", len(bindings))
	}

	err = images.ReplaceAll(map[string]string{"closeup": "c.png"})
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	bindings, _ = images.List()
	if len(bindings) != 1 || bindings[0].Label != "closeup" {
		t.Errorf("bindings after replace = %+v, want only closeup", bindings)
	}
}

func TestPresetRepository_SaveGet(t *testing.T) {
	s := newTestStore(t)
	presets := s.Presets()

	entries := map[string]string{
		"smiling":   "uploads/smiling.png",
		"thumbs_up": "uploads/thumbs_up.png",
	}

	saved, err := presets.Save("reactions", entries)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.TotalImages != 2 {
		t.Errorf("total_images = %d, want 2", saved.TotalImages)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}

	p, err := presets.Get("reactions")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(p.Entries))
	}
	if p.Entries["smiling"] != "uploads/smiling.png" {
		t.Errorf("smiling entry = %q", p.Entries["smiling"])
	}
	if p.TotalImages != 2 {
		t.Errorf("total_images = %d, want 2", p.TotalImages)
	}
}

func TestPresetRepository_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	presets := s.Presets()

	presets.Save("reactions", map[string]string{"smiling": "a.png", "fist": "b.png"})
	presets.Save("reactions", map[string]string{"closeup": "c.png"})

	p, err := presets.Get("reactions")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Entries) != 1 {
		t.Fatalf("entries after overwrite = %d, want 1", len(p.Entries))
	}
	if _, ok := p.Entries["closeup"]; !ok {
		t.Error("expected closeup entry after overwrite")
	}
}

func TestPresetRepository_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	presets := s.Presets()

	presets.Save("one", map[string]string{"smiling": "a.png"})
	presets.Save("two", map[string]string{"fist": "b.png"})

	list, err := presets.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d presets, want 2", len(list))
	}

	if err := presets.Delete("one"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := presets.Get("one"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Entries must be gone with the preset
	var count int
	s.DB().QueryRow(`SELECT COUNT(*) FROM preset_entries WHERE preset_name = 'one'`).Scan(&count)
	if count != 0 {
		t.Errorf("orphaned preset entries = %d, want 0", count)
	}

	if err := presets.Delete("one"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() missing error = %v, want ErrNotFound", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get(SettingCameraID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}

	if err := settings.Set(SettingCameraID, "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, err := settings.Get(SettingCameraID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "1" {
		t.Errorf("value = %q, want 1", v)
	}

	// Bool helpers default when missing and round-trip when set
	b, err := settings.GetBool(SettingAutoTrigger, true)
	if err != nil || !b {
		t.Errorf("GetBool() default = %v, %v, want true, nil", b, err)
	}
	if err := settings.SetBool(SettingAutoTrigger, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	b, _ = settings.GetBool(SettingAutoTrigger, true)
	if b {
		t.Error("GetBool() = true after storing false")
	}
}
