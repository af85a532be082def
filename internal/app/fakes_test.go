package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// memDoc is an in-memory labels document.
type memDoc struct {
	id         int
	tables     map[string][]domain.Point
	videoNames []string
	videos     map[string]*domain.EmbeddedVideo
	records    []string
	hasRecords bool
	refs       []int64
	hasRefs    bool

	failWriteRecords error
	closed           bool
}

func newMemDoc() *memDoc {
	return &memDoc{
		tables: make(map[string][]domain.Point),
		videos: make(map[string]*domain.EmbeddedVideo),
	}
}

func (d *memDoc) withPoints(table string, pts ...domain.Point) *memDoc {
	d.tables[table] = pts
	return d
}

func (d *memDoc) withRecords(records ...string) *memDoc {
	d.records = records
	d.hasRecords = true
	return d
}

func (d *memDoc) withVideo(v *domain.EmbeddedVideo) *memDoc {
	d.videoNames = append(d.videoNames, v.Name)
	d.videos[v.Name] = v
	return d
}

func (d *memDoc) withRefs(refs ...int64) *memDoc {
	d.refs = refs
	d.hasRefs = true
	return d
}

func (d *memDoc) clone() *memDoc {
	c := newMemDoc()
	for k, v := range d.tables {
		c.tables[k] = append([]domain.Point(nil), v...)
	}
	c.videoNames = append([]string(nil), d.videoNames...)
	for k, v := range d.videos {
		if v == nil {
			c.videos[k] = nil
			continue
		}
		frames := make([][]byte, len(v.Frames))
		for i, f := range v.Frames {
			frames[i] = append([]byte(nil), f...)
		}
		c.videos[k] = &domain.EmbeddedVideo{
			Name:         v.Name,
			Dataset:      v.Dataset,
			Attrs:        v.Attrs.Clone(),
			Frames:       frames,
			FrameNumbers: append([]int64(nil), v.FrameNumbers...),
			SourceVideo:  v.SourceVideo.Clone(),
		}
	}
	c.records = append([]string(nil), d.records...)
	c.hasRecords = d.hasRecords
	c.refs = append([]int64(nil), d.refs...)
	c.hasRefs = d.hasRefs
	c.failWriteRecords = d.failWriteRecords
	return c
}

func (d *memDoc) Keys() []string {
	var keys []string
	for _, t := range domain.PointTables {
		if _, ok := d.tables[t]; ok {
			keys = append(keys, t)
		}
	}
	keys = append(keys, d.videoNames...)
	if d.hasRecords {
		keys = append(keys, domain.VideoRecordsKey)
	}
	return keys
}

func (d *memDoc) ReadPoints(ctx context.Context, table string) ([]domain.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pts, ok := d.tables[table]
	if !ok {
		return nil, fmt.Errorf("%s: %w", table, domain.ErrMissingStructure)
	}
	return append([]domain.Point(nil), pts...), nil
}

func (d *memDoc) WritePoints(ctx context.Context, table string, points []domain.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(points) != len(d.tables[table]) {
		return fmt.Errorf("length mismatch")
	}
	d.tables[table] = append([]domain.Point(nil), points...)
	return nil
}

func (d *memDoc) EmbeddedVideos(ctx context.Context) ([]string, error) {
	return append([]string(nil), d.videoNames...), nil
}

func (d *memDoc) ReadEmbeddedVideo(ctx context.Context, name string) (*domain.EmbeddedVideo, error) {
	v, ok := d.videos[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrMissingStructure)
	}
	return v, nil
}

func (d *memDoc) ReplaceEmbeddedVideo(ctx context.Context, v *domain.EmbeddedVideo) error {
	if _, ok := d.videos[v.Name]; !ok {
		return fmt.Errorf("%s: %w", v.Name, domain.ErrMissingStructure)
	}
	d.videos[v.Name] = v
	return nil
}

func (d *memDoc) ReadVideoRecords(ctx context.Context) ([]string, error) {
	if !d.hasRecords {
		return nil, fmt.Errorf("%s: %w", domain.VideoRecordsKey, domain.ErrMissingStructure)
	}
	return append([]string(nil), d.records...), nil
}

func (d *memDoc) WriteVideoRecords(ctx context.Context, records []string) error {
	if d.failWriteRecords != nil {
		return d.failWriteRecords
	}
	d.records = append([]string(nil), records...)
	return nil
}

func (d *memDoc) ReadFrameVideoRefs(ctx context.Context) ([]int64, error) {
	if !d.hasRefs {
		return nil, fmt.Errorf("%s: %w", domain.LabeledFramesKey, domain.ErrMissingStructure)
	}
	return append([]int64(nil), d.refs...), nil
}

func (d *memDoc) Close() error {
	d.closed = true
	return nil
}

// memFS holds documents by path and implements DocumentStore, Workspace
// and Fingerprinter over them.
type memFS struct {
	mu      sync.Mutex
	docs    map[string]*memDoc
	nextID  int
	creates int
}

func newMemFS() *memFS {
	return &memFS{docs: make(map[string]*memDoc)}
}

func (m *memFS) put(path string, d *memDoc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d.id = m.nextID
	m.docs[path] = d
}

func (m *memFS) get(path string) (*memDoc, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	return d, ok
}

func (m *memFS) Open(ctx context.Context, path string, mode ports.OpenMode) (ports.Document, error) {
	d, ok := m.get(path)
	if !ok {
		return nil, fmt.Errorf("no document at %s", path)
	}
	return d, nil
}

func (m *memFS) Create(ctx context.Context, input, output string) (ports.Scratch, error) {
	src, ok := m.get(input)
	if !ok {
		return nil, &domain.FatalInputError{Op: "open input", Path: input, Err: fmt.Errorf("not found")}
	}
	m.mu.Lock()
	m.creates++
	m.mu.Unlock()
	s := &memScratch{fs: m, path: output + ".scratch", output: output}
	m.put(s.path, src.clone())
	return s, nil
}

func (m *memFS) Fingerprint(ctx context.Context, path string) (string, error) {
	d, ok := m.get(path)
	if !ok {
		return "", fmt.Errorf("no document at %s", path)
	}
	return fmt.Sprintf("doc-%d", d.id), nil
}

type memScratch struct {
	fs        *memFS
	path      string
	output    string
	committed bool
}

func (s *memScratch) Path() string { return s.path }

func (s *memScratch) Commit() error {
	d, _ := s.fs.get(s.path)
	s.fs.mu.Lock()
	delete(s.fs.docs, s.path)
	s.fs.mu.Unlock()
	s.fs.put(s.output, d)
	s.committed = true
	return nil
}

func (s *memScratch) Discard() error {
	if s.committed {
		return nil
	}
	s.fs.mu.Lock()
	delete(s.fs.docs, s.path)
	s.fs.mu.Unlock()
	return nil
}

// memLedger is an in-memory RunLedger.
type memLedger struct {
	runs []domain.Run
}

func (l *memLedger) Record(ctx context.Context, run domain.Run) (domain.Run, error) {
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(l.runs)+1)
	}
	l.runs = append(l.runs, run)
	return run, nil
}

func (l *memLedger) FindByOutput(ctx context.Context, fp string) (*domain.Run, error) {
	for i := len(l.runs) - 1; i >= 0; i-- {
		if l.runs[i].OutputFingerprint == fp {
			r := l.runs[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (l *memLedger) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	return l.runs, nil
}

// captureLogger records messages by level.
type captureLogger struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{msgs: make(map[string][]string)}
}

func (c *captureLogger) add(level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs[level] = append(c.msgs[level], msg)
}

func (c *captureLogger) Debug(msg string, _ ...ports.Field) { c.add("debug", msg) }
func (c *captureLogger) Info(msg string, _ ...ports.Field)  { c.add("info", msg) }
func (c *captureLogger) Warn(msg string, _ ...ports.Field)  { c.add("warn", msg) }
func (c *captureLogger) Error(msg string, _ ...ports.Field) { c.add("error", msg) }

func (c *captureLogger) at(level string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs[level]...)
}
