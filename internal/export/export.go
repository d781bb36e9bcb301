// Package export runs one export request end to end: it resolves the
// encode plan, re-encodes through the media engine when an edit requires
// it, uploads the result and writes the result descriptor onto the project.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videothingy/internal/captions"
	"videothingy/internal/db"
	"videothingy/internal/encode"
	"videothingy/internal/ffmpeg"
	"videothingy/internal/filtergraph"
	"videothingy/models"
)

// Storage is the media storage collaborator.
type Storage interface {
	Upload(ctx context.Context, r io.Reader, contentType, ext string) (string, error)
	DownloadURL(objectID string) string
	Download(ctx context.Context, objectID string) (io.ReadCloser, error)
}

// Engine runs the media processor.
type Engine interface {
	Encode(job ffmpeg.EncodeJob) error
	Probe(path string) (*ffmpeg.Metadata, error)
}

// Options configure an Orchestrator.
type Options struct {
	TempDir          string
	FontFile         string
	FallbackFontFile string

	// ContentType maps an export format to the uploaded MIME type.
	ContentType func(format string) string

	Now    func() time.Time
	Remove func(path string) error
}

// Orchestrator runs exports. It keeps no state between calls, so one value
// may serve concurrent exports, including of the same project.
type Orchestrator struct {
	store    db.ProjectStore
	storage  Storage
	engine   Engine
	opts     Options
	validate *validator.Validate
	log      logrus.FieldLogger
}

// New creates an Orchestrator.
func New(store db.ProjectStore, storage Storage, engine Engine, opts Options, log logrus.FieldLogger) *Orchestrator {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Remove == nil {
		opts.Remove = os.Remove
	}
	if opts.ContentType == nil {
		opts.ContentType = func(string) string { return "" }
	}
	return &Orchestrator{
		store:    store,
		storage:  storage,
		engine:   engine,
		opts:     opts,
		validate: validator.New(),
		log:      log,
	}
}

// Validate applies defaults to req and checks it.
func (o *Orchestrator) Validate(req *models.ExportRequest) error {
	req.ApplyDefaults()
	if err := o.validate.Struct(req); err != nil {
		return fail(StageReceived, KindValidation, err)
	}
	return nil
}

// Export runs req to completion. On failure the project's export data is
// left as it was, and temporary files are removed on every path.
func (o *Orchestrator) Export(ctx context.Context, req models.ExportRequest) (*models.ExportData, error) {
	if err := o.Validate(&req); err != nil {
		return nil, err
	}
	if req.ExportID == "" {
		req.ExportID = uuid.NewString()
	}
	log := o.log.WithFields(logrus.Fields{"project_id": req.ProjectID, "export_id": req.ExportID})

	data, err := o.export(ctx, log, req)
	if err != nil {
		log.WithError(err).Error("Export failed")
		return nil, err
	}
	return data, nil
}

func (o *Orchestrator) export(ctx context.Context, log logrus.FieldLogger, req models.ExportRequest) (*models.ExportData, error) {
	project, err := o.store.GetProject(ctx, req.ProjectID)
	if errors.Is(err, db.ErrProjectNotFound) {
		return nil, fail(StageReceived, KindNotFound, err)
	}
	if err != nil {
		return nil, fail(StageReceived, KindIO, err)
	}

	caps, err := project.DecodeCaptions()
	if err != nil {
		return nil, fail(StageReceived, KindValidation, err)
	}
	var srt *string
	if req.IncludeCaptions && len(caps) > 0 {
		s := captions.ToSRT(caps)
		srt = &s
	}
	burn := req.BurnCaptions && len(caps) > 0

	trim := encode.Trim{Start: req.TrimStart, End: req.TrimEnd}
	plan := encode.Resolve(req.Quality, len(req.TextOverlays), trim, project.Duration)

	// A trim end can only be compared against a known source duration.
	durationKnown := project.Duration > 0
	if !plan.NeedsProcessing && !burn && (durationKnown || req.TrimEnd == nil) {
		return o.passthrough(ctx, log, req, project, srt)
	}

	r := &run{
		Orchestrator: o,
		log:          log,
		req:          req,
		project:      project,
		id:           uuid.NewString(),
	}
	defer r.cleanup()

	input, err := r.fetchSource(ctx)
	if err != nil {
		return nil, fail(StageDownloading, KindIO, err)
	}
	if !durationKnown {
		md, err := r.engine.Probe(input)
		if err != nil {
			return nil, fail(StageEncoding, KindEngine, err)
		}
		log.WithField("duration", md.Duration).Info("Probed source duration")
		plan = encode.Resolve(req.Quality, len(req.TextOverlays), trim, md.Duration)
		if !plan.NeedsProcessing && !burn {
			return o.passthrough(ctx, log, req, project, srt)
		}
	}

	data, err := r.process(ctx, input, plan, caps, burn)
	if err != nil {
		return nil, err
	}
	data.SRTContent = srt

	if err := db.SaveExportData(ctx, o.store, project.ID, data); err != nil {
		return nil, fail(StageUploading, KindIO, err)
	}
	log.WithField("video_file_id", data.VideoFileID).Info("Export completed")
	return data, nil
}

func (o *Orchestrator) passthrough(ctx context.Context, log logrus.FieldLogger, req models.ExportRequest, project *models.Project, srt *string) (*models.ExportData, error) {
	data := &models.ExportData{
		ExportID:    req.ExportID,
		DownloadURL: o.storage.DownloadURL(project.VideoFileID),
		SRTContent:  srt,
		VideoFileID: project.VideoFileID,
		ExportedAt:  o.opts.Now().UTC(),
	}
	if err := db.SaveExportData(ctx, o.store, project.ID, data); err != nil {
		return nil, fail(StagePassthrough, KindIO, err)
	}
	log.Info("No edits to apply, exported source as is")
	return data, nil
}

// run holds the temporary files of one export invocation.
type run struct {
	*Orchestrator
	log     logrus.FieldLogger
	req     models.ExportRequest
	project *models.Project
	id      string
	temps   []string
}

// tempPath names a file after the project and this invocation so that
// concurrent exports of one project never share a path.
func (r *run) tempPath(kind, ext string) string {
	p := filepath.Join(r.opts.TempDir, fmt.Sprintf("%s_%s_%s%s", kind, r.project.ID, r.id, ext))
	r.temps = append(r.temps, p)
	return p
}

func (r *run) cleanup() {
	for _, p := range r.temps {
		if err := r.opts.Remove(p); err != nil && !os.IsNotExist(err) {
			r.log.WithError(err).WithField("path", p).Warn("Failed to remove temporary file")
		}
	}
}

// fetchSource downloads the project's source video into a temporary file.
func (r *run) fetchSource(ctx context.Context) (string, error) {
	ext := path.Ext(r.project.VideoFileID)
	if ext == "" {
		ext = ".mp4"
	}
	input := r.tempPath("input", ext)
	if err := r.download(ctx, input); err != nil {
		return "", err
	}
	return input, nil
}

func (r *run) process(ctx context.Context, input string, plan encode.Plan, caps []models.Caption, burn bool) (*models.ExportData, error) {
	opts := filtergraph.Options{
		Width:    plan.Params.Width,
		Height:   plan.Params.Height,
		FontFile: filtergraph.ResolveFont(r.opts.FallbackFontFile, r.opts.FontFile),
	}
	if burn {
		srtPath := r.tempPath("captions", ".srt")
		if err := os.WriteFile(srtPath, []byte(captions.ToSRT(caps)), 0644); err != nil {
			return nil, fail(StageEncoding, KindIO, errors.Wrap(err, "failed to write subtitle file"))
		}
		opts.SubtitlesFile = srtPath
	}

	job := ffmpeg.EncodeJob{
		InputPath:  input,
		OutputPath: r.tempPath("output", "."+r.req.Format),
		Params:     plan.Params,
		TrimStart:  plan.TrimStart,
		Duration:   plan.Duration(),
	}
	if plan.NeedsProcessing || burn {
		job.Graph = filtergraph.Compile(opts, r.req.TextOverlays)
	}

	r.log.WithFields(logrus.Fields{
		"quality":  plan.Params.Quality,
		"overlays": len(r.req.TextOverlays),
		"trim":     fmt.Sprintf("%g-%g", plan.TrimStart, plan.TrimEnd),
	}).Info("Encoding export")
	if err := r.engine.Encode(job); err != nil {
		return nil, fail(StageEncoding, KindEngine, err)
	}

	objectID, err := r.upload(ctx, job.OutputPath)
	if err != nil {
		return nil, fail(StageUploading, KindIO, err)
	}

	return &models.ExportData{
		ExportID:            r.req.ExportID,
		DownloadURL:         r.storage.DownloadURL(objectID),
		VideoFileID:         objectID,
		ExportedAt:          r.opts.Now().UTC(),
		Processed:           true,
		TextOverlaysApplied: len(r.req.TextOverlays),
		TrimApplied:         plan.TrimApplied,
	}, nil
}

func (r *run) download(ctx context.Context, dest string) error {
	body, err := r.storage.Download(ctx, r.project.VideoFileID)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "failed to create input file")
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to download %s", r.project.VideoFileID)
	}
	return errors.Wrap(f.Close(), "failed to write input file")
}

func (r *run) upload(ctx context.Context, src string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", errors.Wrap(err, "failed to open encoded output")
	}
	defer f.Close()
	return r.storage.Upload(ctx, f, r.opts.ContentType(r.req.Format), strings.TrimPrefix(r.req.Format, "."))
}
