package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"videothingy/internal/db"
	"videothingy/models"
)

type fakeProcessor struct {
	srv       *httptest.Server
	submitted models.ExportRequest
}

func newFakeProcessor(t *testing.T) *fakeProcessor {
	t.Helper()
	fp := &fakeProcessor{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/projects/p1", func(w http.ResponseWriter, r *http.Request) {
		srt := "1\n00:00:00,000 --> 00:00:01,000\nhi\n"
		data, _ := json.Marshal(models.ExportData{
			ExportID:    "e1",
			DownloadURL: fp.srv.URL + "/files/out.webm",
			SRTContent:  &srt,
			VideoFileID: "out.webm",
			ExportedAt:  time.Now().UTC(),
		})
		exportData := string(data)
		caps := `[{"id":"c1","text":"hi","start":0,"end":1}]`
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data":   models.Project{ID: "p1", Title: "Demo", Captions: &caps, ExportData: &exportData},
		})
	})
	mux.HandleFunc("/api/v1/projects/p1/export", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&fp.submitted)
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `{"status":"success","data":{"exportId":"e1","projectId":"p1"}}`)
	})
	mux.HandleFunc("/files/out.webm", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "webm-bytes")
	})
	fp.srv = httptest.NewServer(mux)
	t.Cleanup(fp.srv.Close)
	return fp
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExportCommand(t *testing.T) {
	fp := newFakeProcessor(t)
	dir := t.TempDir()
	overlays := filepath.Join(dir, "overlays.json")
	os.WriteFile(overlays, []byte(`[{"text":"Title","x":10,"y":10,"opacity":100,"scale":1,"startTime":0,"endTime":5}]`), 0o644)

	out, err := execute(t, "export", "p1",
		"--server", fp.srv.URL, "--interval", "1ms", "--attempts", "3",
		"-q", "720p", "-f", "webm", "--captions", "--trim-start", "2", "--trim-end", "8",
		"--overlays", overlays, "-o", dir)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}

	got := fp.submitted
	if got.ProjectID != "p1" || got.Quality != "720p" || got.Format != "webm" || !got.IncludeCaptions ||
		got.TrimStart != 2 || got.TrimEnd == nil || *got.TrimEnd != 8 || len(got.TextOverlays) != 1 {
		t.Fatalf("submitted = %+v", got)
	}

	video, err := os.ReadFile(filepath.Join(dir, "Demo_720p.webm"))
	if err != nil || string(video) != "webm-bytes" {
		t.Fatalf("video = %q, %v (output %s)", video, err, out)
	}
	srt, err := os.ReadFile(filepath.Join(dir, "Demo_captions.srt"))
	if err != nil || !strings.Contains(string(srt), "hi") {
		t.Fatalf("srt = %q, %v", srt, err)
	}
	if !strings.Contains(out, "queued export e1") {
		t.Fatalf("output = %q", out)
	}
}

func TestExportCommand_NoTrimEndByDefault(t *testing.T) {
	fp := newFakeProcessor(t)
	if _, err := execute(t, "export", "p1", "--server", fp.srv.URL, "--no-wait"); err != nil {
		t.Fatalf("export error = %v", err)
	}
	if fp.submitted.TrimEnd != nil {
		t.Fatalf("TrimEnd = %v, want unset", *fp.submitted.TrimEnd)
	}
}

func TestWatchCommand_WrongExportIDTimesOut(t *testing.T) {
	fp := newFakeProcessor(t)
	_, err := execute(t, "watch", "p1", "--server", fp.srv.URL, "--interval", "1ms", "--attempts", "2",
		"--export-id", "other", "-o", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("watch error = %v", err)
	}
}

func TestSRTCommand(t *testing.T) {
	fp := newFakeProcessor(t)
	out, err := execute(t, "srt", "p1", "--server", fp.srv.URL)
	if err != nil {
		t.Fatalf("srt error = %v", err)
	}
	if out != "1\n00:00:00,000 --> 00:00:01,000\nhi\n" {
		t.Fatalf("srt output = %q", out)
	}
}

func TestFormatsCommand(t *testing.T) {
	out, err := execute(t, "formats")
	if err != nil {
		t.Fatalf("formats error = %v", err)
	}
	if !strings.HasPrefix(out, "1080p  1920x1080 5000k 30fps\n") || !strings.Contains(out, "formats: mp4, mov, webm") {
		t.Fatalf("formats output = %q", out)
	}
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	projectFile := filepath.Join(dir, "project.json")
	os.WriteFile(projectFile, []byte(`{"id":"p9","title":"Seeded","videoFileId":"src.mp4","duration":12}`), 0o644)
	dbPath := filepath.Join(dir, "local.db")

	out, err := execute(t, "seed", projectFile, "--db", dbPath)
	if err != nil {
		t.Fatalf("seed error = %v", err)
	}
	if out != "seeded project p9\n" {
		t.Fatalf("seed output = %q", out)
	}

	store, err := db.OpenSQLite(dbPath, nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()
	p, err := store.GetProject(context.Background(), "p9")
	if err != nil || p.Title != "Seeded" || p.Duration != 12 {
		t.Fatalf("GetProject() = %+v, %v", p, err)
	}
}

func TestSeedCommand_RequiresID(t *testing.T) {
	projectFile := filepath.Join(t.TempDir(), "project.json")
	os.WriteFile(projectFile, []byte(`{"title":"x"}`), 0o644)
	if _, err := execute(t, "seed", projectFile, "--db", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("seed without id: expected error")
	}
}
