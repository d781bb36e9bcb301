package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"videothingy/models"
)

func strptr(s string) *string { return &s }

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	s1, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("first OpenSQLite() error = %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("second OpenSQLite() error = %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("migrations recorded = %d, want 1", count)
	}
}

func TestSQLiteStore_GetProject(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	end := 100.0
	in := &models.Project{
		ID:           "p1",
		Title:        "Demo",
		VideoFileID:  "src.mp4",
		Duration:     120,
		Status:       models.ProjectStatusReady,
		TextOverlays: strptr(`[{"text":"hi"}]`),
		TrimStart:    10,
		TrimEnd:      &end,
	}
	if err := s.SaveProject(ctx, in); err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Title != "Demo" || got.VideoFileID != "src.mp4" || got.Duration != 120 || got.Status != models.ProjectStatusReady {
		t.Fatalf("GetProject() = %+v", got)
	}
	if got.TrimEnd == nil || *got.TrimEnd != 100 || got.TrimStart != 10 {
		t.Fatalf("trim = %v %v", got.TrimStart, got.TrimEnd)
	}
	if got.Captions != nil || got.ExportData != nil {
		t.Fatalf("unexpected captions/export data: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}

	if _, err := s.GetProject(ctx, "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("GetProject(missing) error = %v", err)
	}
}

func TestSQLiteStore_UpdateIsPartial(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveProject(ctx, &models.Project{ID: "p1", Title: "Demo", TextOverlays: strptr("[]")}); err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	data := &models.ExportData{DownloadURL: "https://x/out.mp4", VideoFileID: "out.mp4", ExportedAt: time.Now().UTC()}
	if err := SaveExportData(ctx, s, "p1", data); err != nil {
		t.Fatalf("SaveExportData() error = %v", err)
	}
	if err := SaveCaptions(ctx, s, "p1", []models.Caption{{ID: "cap_0", Start: 0, End: 1, Text: "hi"}}); err != nil {
		t.Fatalf("SaveCaptions() error = %v", err)
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Title != "Demo" || got.TextOverlays == nil || *got.TextOverlays != "[]" {
		t.Fatalf("unrelated fields changed: %+v", got)
	}
	decoded, err := got.DecodeExportData()
	if err != nil || decoded == nil || decoded.VideoFileID != "out.mp4" {
		t.Fatalf("DecodeExportData() = %+v, %v", decoded, err)
	}
	caps, err := got.DecodeCaptions()
	if err != nil || len(caps) != 1 || !got.CaptionsGenerated {
		t.Fatalf("captions = %+v generated=%v err=%v", caps, got.CaptionsGenerated, err)
	}
}

func TestSQLiteStore_UpdateErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpdateProject(ctx, "missing", Fields{FieldExportData: "{}"}); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("UpdateProject(missing) error = %v", err)
	}
	if err := s.UpdateProject(ctx, "p1", Fields{"id": "other"}); err == nil {
		t.Fatal("UpdateProject() accepted an unknown field")
	}
}
