package db

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"videothingy/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// columns maps updatable serialized field names to SQLite columns.
var columns = map[string]string{
	"title":                "title",
	FieldStatus:            "status",
	FieldVideoFileID:       "video_file_id",
	FieldDuration:          "duration",
	"textOverlays":         "text_overlays",
	"trimStart":            "trim_start",
	"trimEnd":              "trim_end",
	"mediaItems":           "media_items",
	FieldCaptions:          "captions",
	FieldCaptionsGenerated: "captions_generated",
	FieldExportData:        "export_data",
}

const projectColumns = `id, user_id, title, video_file_id, duration, status, captions,
	captions_generated, text_overlays, trim_start, trim_end, media_items,
	export_data, created_at, updated_at`

// SQLiteStore keeps projects in a local SQLite database. It backs the
// processor when no Supabase endpoint is configured.
type SQLiteStore struct {
	conn *sql.DB
	log  logrus.FieldLogger
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string, log logrus.FieldLogger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to execute %s", pragma)
		}
	}

	s := &SQLiteStore{conn: conn, log: log}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "failed to read migrations")
	}

	for _, e := range entries {
		name := e.Name()
		if s.migrationApplied(name) {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", name)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return errors.Wrapf(err, "failed to record migration %s", name)
		}
		if s.log != nil {
			s.log.WithField("name", name).Info("Applied migration")
		}
	}
	return nil
}

func (s *SQLiteStore) migrationApplied(name string) bool {
	var applied int
	err := s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// SaveProject inserts or replaces a whole project record.
func (s *SQLiteStore) SaveProject(ctx context.Context, p *models.Project) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := s.conn.ExecContext(ctx, `INSERT OR REPLACE INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.VideoFileID, p.Duration, string(p.Status), p.Captions,
		p.CaptionsGenerated, p.TextOverlays, p.TrimStart, p.TrimEnd, p.MediaItems,
		p.ExportData, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return errors.Wrapf(err, "failed to save project %s", p.ID)
	}
	return nil
}

// GetProject fetches one project by id.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var (
		p                    models.Project
		status               string
		createdAt, updatedAt string
	)
	err := s.conn.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id).Scan(
		&p.ID, &p.UserID, &p.Title, &p.VideoFileID, &p.Duration, &status, &p.Captions,
		&p.CaptionsGenerated, &p.TextOverlays, &p.TrimStart, &p.TrimEnd, &p.MediaItems,
		&p.ExportData, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error fetching project %s", id)
	}

	p.Status = models.ProjectStatus(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &p, nil
}

// UpdateProject sets the given fields on one project. Unknown field names
// are rejected.
func (s *SQLiteStore) UpdateProject(ctx context.Context, id string, fields Fields) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == FieldUpdatedAt {
			continue
		}
		if _, ok := columns[k]; !ok {
			return errors.Errorf("field %q cannot be updated", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]interface{}, 0, len(keys)+2)
	for _, k := range keys {
		sets = append(sets, columns[k]+" = ?")
		args = append(args, fields[k])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now().UTC()), id)

	res, err := s.conn.ExecContext(ctx, "UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return errors.Wrapf(err, "failed to update project %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to update project %s", id)
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
