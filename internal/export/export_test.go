package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"videothingy/internal/ffmpeg"
	"videothingy/internal/filtergraph"
	"videothingy/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

func strptr(s string) *string { return &s }

func testProject() models.Project {
	return models.Project{
		ID:          "p1",
		Title:       "Demo",
		VideoFileID: "src.mp4",
		Duration:    120,
		Status:      models.ProjectStatusReady,
		Captions:    strptr(`[{"id":"cap_0","start":65.25,"end":67.5,"text":"hello"}]`),
	}
}

type harness struct {
	store   *memStore
	storage *memStorage
	engine  *fakeEngine
	tmp     string
	logs    *logtest.Hook
	orch    *Orchestrator
}

func newHarness(t *testing.T, opts ...func(*Options)) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := &harness{
		store:   newMemStore(testProject()),
		storage: newMemStorage(),
		engine:  &fakeEngine{},
		tmp:     t.TempDir(),
		logs:    logtest.NewLocal(log),
	}
	o := Options{
		TempDir:          h.tmp,
		FontFile:         filepath.Join(h.tmp, "missing.ttf"),
		FallbackFontFile: "/fallback/DejaVuSans.ttf",
		Now:              func() time.Time { return fixedNow },
	}
	for _, fn := range opts {
		fn(&o)
	}
	h.orch = New(h.store, h.storage, h.engine, o, log)
	return h
}

func (h *harness) assertTempEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("temporary files left behind: %v", names)
	}
}

func overlayAt(start, end float64) models.TextOverlay {
	return models.TextOverlay{
		Text:            "Title",
		X:               50,
		Y:               10,
		FontSize:        40,
		Color:           "#ffffff",
		BackgroundColor: models.TransparentBackground,
		Opacity:         100,
		StartTime:       start,
		EndTime:         end,
		Scale:           1,
	}
}

func TestExport_Passthrough(t *testing.T) {
	h := newHarness(t)

	data, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", TrimEnd: f64(120)})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if data.VideoFileID != "src.mp4" {
		t.Fatalf("VideoFileID = %q, want source", data.VideoFileID)
	}
	if data.DownloadURL != "https://storage.test/src.mp4" || !data.ExportedAt.Equal(fixedNow) {
		t.Fatalf("data = %+v", data)
	}
	if data.Processed || data.SRTContent != nil || data.ExportID == "" {
		t.Fatalf("data = %+v", data)
	}
	if len(h.engine.jobs) != 0 || h.storage.downloads != 0 || h.storage.uploads != 0 {
		t.Fatalf("passthrough touched media: jobs=%d downloads=%d uploads=%d",
			len(h.engine.jobs), h.storage.downloads, h.storage.uploads)
	}
	if len(h.store.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(h.store.updates))
	}
	h.assertTempEmpty(t)
}

func TestExport_PassthroughWithCaptions(t *testing.T) {
	h := newHarness(t)

	data, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", IncludeCaptions: true})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := "1\n00:01:05,250 --> 00:01:07,500\nhello\n"
	if data.SRTContent == nil || *data.SRTContent != want {
		t.Fatalf("SRTContent = %v", data.SRTContent)
	}
}

func TestExport_TrimAndOverlay(t *testing.T) {
	h := newHarness(t)

	data, err := h.orch.Export(context.Background(), models.ExportRequest{
		ProjectID:    "p1",
		Quality:      "720p",
		Format:       "webm",
		TrimStart:    10,
		TrimEnd:      f64(100),
		TextOverlays: []models.TextOverlay{overlayAt(20, 30)},
		ExportID:     "exp-1",
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if len(h.engine.jobs) != 1 {
		t.Fatalf("encode jobs = %d, want 1", len(h.engine.jobs))
	}
	job := h.engine.jobs[0]
	if job.TrimStart != 10 || job.Duration != 90 {
		t.Fatalf("trim = %v+%v, want 10+90", job.TrimStart, job.Duration)
	}
	if job.Params.Width != 1280 || job.Params.Height != 720 || job.Params.Bitrate() != "3000k" {
		t.Fatalf("params = %+v", job.Params)
	}
	if job.Graph == nil || job.Graph.Count(filtergraph.OpDrawText) != 1 || job.Graph.Output != filtergraph.OutputLabel {
		t.Fatalf("graph = %+v", job.Graph)
	}
	if enable, _ := job.Graph.Stages[1].Param("enable"); enable != "between(t,20,30)" {
		t.Fatalf("enable = %q", enable)
	}
	if font, _ := job.Graph.Stages[1].Param("fontfile"); font != "/fallback/DejaVuSans.ttf" {
		t.Fatalf("fontfile = %q", font)
	}
	if filepath.Ext(job.OutputPath) != ".webm" {
		t.Fatalf("output path = %q", job.OutputPath)
	}

	if data.VideoFileID == "src.mp4" || data.VideoFileID == "" {
		t.Fatalf("VideoFileID = %q, want a new object", data.VideoFileID)
	}
	if !data.Processed || data.TextOverlaysApplied != 1 || !data.TrimApplied || data.ExportID != "exp-1" {
		t.Fatalf("data = %+v", data)
	}
	if string(h.storage.objects[data.VideoFileID]) != "encoded:source video" {
		t.Fatalf("uploaded = %q", h.storage.objects[data.VideoFileID])
	}
	if string(h.storage.objects["src.mp4"]) != "source video" {
		t.Fatal("source object was modified")
	}

	p, _ := h.store.GetProject(context.Background(), "p1")
	stored, err := p.DecodeExportData()
	if err != nil || stored == nil || stored.VideoFileID != data.VideoFileID {
		t.Fatalf("stored export data = %+v, %v", stored, err)
	}
	h.assertTempEmpty(t)
}

func TestExport_TrimOnlyDefaultsEndToDuration(t *testing.T) {
	h := newHarness(t)

	data, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", TrimStart: 30})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	job := h.engine.jobs[0]
	if job.TrimStart != 30 || job.Duration != 90 {
		t.Fatalf("trim = %v+%v, want 30+90", job.TrimStart, job.Duration)
	}
	if job.Graph == nil || job.Graph.Count(filtergraph.OpDrawText) != 0 {
		t.Fatalf("graph = %+v", job.Graph)
	}
	if job.Params.Width != 1920 {
		t.Fatalf("default quality not applied: %+v", job.Params)
	}
	if !data.TrimApplied || data.TextOverlaysApplied != 0 {
		t.Fatalf("data = %+v", data)
	}
}

func TestExport_BurnCaptions(t *testing.T) {
	h := newHarness(t)

	data, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", BurnCaptions: true})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !data.Processed || len(h.engine.subtitles) != 1 {
		t.Fatalf("data = %+v subtitles = %v", data, h.engine.subtitles)
	}
	h.assertTempEmpty(t)
}

func TestExport_TrimAgainstSourceDuration(t *testing.T) {
	tests := []struct {
		name          string
		duration      float64
		probed        float64
		req           models.ExportRequest
		wantProcessed bool
		wantProbes    int
		wantDownloads int
		wantStart     float64
		wantLength    float64
	}{
		{
			name:          "known duration, trim end at the end",
			duration:      120,
			req:           models.ExportRequest{ProjectID: "p1", TrimEnd: f64(120)},
			wantProcessed: false,
		},
		{
			name:          "known duration, trim end before the end",
			duration:      120,
			req:           models.ExportRequest{ProjectID: "p1", TrimEnd: f64(119.5)},
			wantProcessed: true,
			wantDownloads: 1,
			wantLength:    119.5,
		},
		{
			name:          "unknown duration, trim start",
			probed:        60,
			req:           models.ExportRequest{ProjectID: "p1", TrimStart: 15},
			wantProcessed: true,
			wantProbes:    1,
			wantDownloads: 1,
			wantStart:     15,
			wantLength:    45,
		},
		{
			name:          "unknown duration, trim end only",
			probed:        120,
			req:           models.ExportRequest{ProjectID: "p1", TrimEnd: f64(50)},
			wantProcessed: true,
			wantProbes:    1,
			wantDownloads: 1,
			wantLength:    50,
		},
		{
			name:          "unknown duration, trim end at the end",
			probed:        120,
			req:           models.ExportRequest{ProjectID: "p1", TrimEnd: f64(120)},
			wantProcessed: false,
			wantProbes:    1,
			wantDownloads: 1,
		},
		{
			name:          "unknown duration, no edits",
			req:           models.ExportRequest{ProjectID: "p1"},
			wantProcessed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			p := testProject()
			p.Duration = tt.duration
			h.store.projects["p1"] = p
			h.engine.duration = tt.probed

			data, err := h.orch.Export(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if data.Processed != tt.wantProcessed || data.TrimApplied != tt.wantProcessed {
				t.Fatalf("data = %+v, want processed = %v", data, tt.wantProcessed)
			}
			if h.engine.probed != tt.wantProbes || h.storage.downloads != tt.wantDownloads {
				t.Fatalf("probed = %d downloads = %d, want %d and %d",
					h.engine.probed, h.storage.downloads, tt.wantProbes, tt.wantDownloads)
			}
			if !tt.wantProcessed {
				if data.VideoFileID != "src.mp4" || len(h.engine.jobs) != 0 {
					t.Fatalf("VideoFileID = %q jobs = %d, want the untouched source", data.VideoFileID, len(h.engine.jobs))
				}
			} else {
				if len(h.engine.jobs) != 1 {
					t.Fatalf("encode jobs = %d, want 1", len(h.engine.jobs))
				}
				job := h.engine.jobs[0]
				if job.TrimStart != tt.wantStart || job.Duration != tt.wantLength {
					t.Fatalf("trim = %v+%v, want %v+%v", job.TrimStart, job.Duration, tt.wantStart, tt.wantLength)
				}
			}
			h.assertTempEmpty(t)
		})
	}
}

func TestExport_LogsFailureOnEveryPath(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		req   models.ExportRequest
		stage Stage
	}{
		{
			name:  "passthrough",
			setup: func(h *harness) { h.store.updateErr = errors.New("db down") },
			req:   models.ExportRequest{ProjectID: "p1"},
			stage: StagePassthrough,
		},
		{
			name:  "encode",
			setup: func(h *harness) { h.engine.err = errors.New("boom") },
			req:   models.ExportRequest{ProjectID: "p1", TrimStart: 5},
			stage: StageEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			_, err := h.orch.Export(context.Background(), tt.req)
			var f *Failure
			if !errors.As(err, &f) || f.Stage != tt.stage {
				t.Fatalf("Export() error = %v, want failure at %s", err, tt.stage)
			}

			entry := h.logs.LastEntry()
			if entry == nil || entry.Level != logrus.ErrorLevel || entry.Message != "Export failed" {
				t.Fatalf("last log entry = %+v", entry)
			}
			if entry.Data["project_id"] != "p1" || entry.Data[logrus.ErrorKey] == nil {
				t.Fatalf("log fields = %v", entry.Data)
			}
		})
	}
}

func TestExport_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		req   models.ExportRequest
		stage Stage
		kind  Kind
	}{
		{
			name:  "missing project id",
			req:   models.ExportRequest{},
			stage: StageReceived,
			kind:  KindValidation,
		},
		{
			name:  "invalid overlay",
			req:   models.ExportRequest{ProjectID: "p1", TextOverlays: []models.TextOverlay{{Text: "x", Opacity: 150, Scale: 1}}},
			stage: StageReceived,
			kind:  KindValidation,
		},
		{
			name:  "unknown project",
			req:   models.ExportRequest{ProjectID: "nope", TrimStart: 1},
			stage: StageReceived,
			kind:  KindNotFound,
		},
		{
			name:  "download fails",
			setup: func(h *harness) { h.storage.downloadErr = errors.New("503 from storage") },
			req:   models.ExportRequest{ProjectID: "p1", TrimStart: 1},
			stage: StageDownloading,
			kind:  KindIO,
		},
		{
			name:  "engine fails",
			setup: func(h *harness) { h.engine.err = errors.Wrap(ffmpeg.ErrEngine, "Invalid data found") },
			req:   models.ExportRequest{ProjectID: "p1", TrimStart: 1},
			stage: StageEncoding,
			kind:  KindEngine,
		},
		{
			name:  "upload fails",
			setup: func(h *harness) { h.storage.uploadErr = errors.New("connection reset") },
			req:   models.ExportRequest{ProjectID: "p1", TextOverlays: []models.TextOverlay{overlayAt(0, 1)}},
			stage: StageUploading,
			kind:  KindIO,
		},
		{
			name:  "result write fails",
			setup: func(h *harness) { h.store.updateErr = errors.New("db down") },
			req:   models.ExportRequest{ProjectID: "p1", TrimStart: 1},
			stage: StageUploading,
			kind:  KindIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			data, err := h.orch.Export(context.Background(), tt.req)
			if data != nil {
				t.Fatalf("Export() returned data on failure: %+v", data)
			}
			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("Export() error = %v, want *Failure", err)
			}
			if f.Stage != tt.stage || f.Kind != tt.kind {
				t.Fatalf("failure = %s/%s, want %s/%s (%v)", f.Stage, f.Kind, tt.stage, tt.kind, err)
			}
			if len(h.store.updates) != 0 {
				t.Fatalf("export data written on failure: %v", h.store.updates)
			}
			if p, _ := h.store.GetProject(context.Background(), "p1"); p.ExportData != nil {
				t.Fatalf("export data changed: %s", *p.ExportData)
			}
			h.assertTempEmpty(t)
		})
	}
}

func TestExport_EngineErrorKeepsMessage(t *testing.T) {
	h := newHarness(t)
	h.engine.err = errors.Wrap(ffmpeg.ErrEngine, "moov atom not found")

	_, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", TrimStart: 1})
	if !errors.Is(err, ffmpeg.ErrEngine) {
		t.Fatalf("Export() error = %v, want ErrEngine in chain", err)
	}
	if FailureKind(err) != KindEngine {
		t.Fatalf("FailureKind() = %q", FailureKind(err))
	}
}

func TestExport_CleanupFailureDoesNotMaskResult(t *testing.T) {
	var removed []string
	h := newHarness(t, func(o *Options) {
		o.Remove = func(p string) error {
			removed = append(removed, p)
			os.Remove(p)
			return errors.New("permission denied")
		}
	})

	data, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", TrimStart: 1})
	if err != nil || data == nil {
		t.Fatalf("Export() = %v, %v", data, err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed = %v, want input and output", removed)
	}
}

func TestExport_ConcurrentRunsUseDistinctTempFiles(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orch.Export(context.Background(), models.ExportRequest{ProjectID: "p1", TrimStart: 5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
	}

	seen := map[string]bool{}
	for _, j := range h.engine.jobs {
		for _, p := range []string{j.InputPath, j.OutputPath} {
			if seen[p] {
				t.Fatalf("temporary path %s used twice", p)
			}
			seen[p] = true
		}
	}
	h.assertTempEmpty(t)
}

func TestDownloadNames(t *testing.T) {
	if got := DownloadName("My Video", "1080p", "mp4"); got != "My Video_1080p.mp4" {
		t.Errorf("DownloadName() = %q", got)
	}
	if got := CaptionsName("a/b"); got != "a_b_captions.srt" {
		t.Errorf("CaptionsName() = %q", got)
	}
	if got := DownloadName("", "720p", "webm"); got != "export_720p.webm" {
		t.Errorf("DownloadName() = %q", got)
	}
}
