package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"videothingy/internal/db"
	"videothingy/internal/ffmpeg"
	"videothingy/models"
)

type memStore struct {
	mu        sync.Mutex
	projects  map[string]models.Project
	updates   []db.Fields
	updateErr error
}

func newMemStore(projects ...models.Project) *memStore {
	s := &memStore{projects: map[string]models.Project{}}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *memStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, db.ErrProjectNotFound
	}
	return &p, nil
}

func (s *memStore) UpdateProject(_ context.Context, id string, fields db.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	p, ok := s.projects[id]
	if !ok {
		return db.ErrProjectNotFound
	}
	s.updates = append(s.updates, fields)
	if v, ok := fields[db.FieldExportData].(string); ok {
		p.ExportData = &v
	}
	s.projects[id] = p
	return nil
}

type memStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	downloads   int
	uploads     int
	downloadErr error
	uploadErr   error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{"src.mp4": []byte("source video")}}
}

func (s *memStorage) Upload(_ context.Context, r io.Reader, _, ext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.uploads++
	id := fmt.Sprintf("export-%d.%s", s.uploads, ext)
	s.objects[id] = b
	return id, nil
}

func (s *memStorage) DownloadURL(objectID string) string {
	return "https://storage.test/" + objectID
}

func (s *memStorage) Download(_ context.Context, objectID string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads++
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	b, ok := s.objects[objectID]
	if !ok {
		return nil, errors.Errorf("object %s not found", objectID)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeEngine struct {
	mu        sync.Mutex
	jobs      []ffmpeg.EncodeJob
	err       error
	probed    int
	duration  float64
	subtitles []string
}

func (e *fakeEngine) Encode(job ffmpeg.EncodeJob) error {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	e.mu.Unlock()

	in, err := os.ReadFile(job.InputPath)
	if err != nil {
		return err
	}
	if job.Graph != nil {
		for _, s := range job.Graph.Stages {
			if v, ok := s.Param("filename"); ok {
				if _, err := os.Stat(v); err != nil {
					return err
				}
				e.mu.Lock()
				e.subtitles = append(e.subtitles, v)
				e.mu.Unlock()
			}
		}
	}
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(job.OutputPath, append([]byte("encoded:"), in...), 0644)
}

func (e *fakeEngine) Probe(string) (*ffmpeg.Metadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probed++
	return &ffmpeg.Metadata{Duration: e.duration}, nil
}
