package movies

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/duckflix/internal/config"
	"thirdcoast.systems/duckflix/pkg/ffmpeg"
	"thirdcoast.systems/duckflix/pkg/tasks"
	"thirdcoast.systems/duckflix/pkg/torrent"
)

// memRepo is an in-memory Repository. Fields prefixed with fail inject
// errors into the matching method.
type memRepo struct {
	mu            sync.Mutex
	users         map[uuid.UUID]bool
	movies        map[uuid.UUID]*Movie
	versions      map[uuid.UUID]*Version
	notifications []*Notification

	failCommit              error
	failCreateVersion       error
	failSetVersionStatus    error
	failCreateNotification  error
	panicCreateNotification bool

	// afterCommit runs once CommitOriginal succeeds, e.g. to cancel the
	// caller's context the way a disconnecting client would.
	afterCommit func()
}

var _ Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		users:    make(map[uuid.UUID]bool),
		movies:   make(map[uuid.UUID]*Movie),
		versions: make(map[uuid.UUID]*Version),
	}
}

func (r *memRepo) addUser() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.users[id] = true
	return id
}

func (r *memRepo) CreateMovie(_ context.Context, m *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.CreatedAt = time.Now()
	cp := *m
	r.movies[m.ID] = &cp
	return nil
}

func (r *memRepo) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, &MovieNotFoundError{ID: id}
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) MovieOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, &MovieNotFoundError{ID: id}
	}
	return m.UserID, nil
}

func (r *memRepo) SetMovieStatus(_ context.Context, id uuid.UUID, status MovieStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.movies[id]; ok {
		m.Status = status
	}
	return nil
}

func (r *memRepo) CommitOriginal(_ context.Context, v *Version, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCommit != nil {
		return r.failCommit
	}
	m, ok := r.movies[v.MovieID]
	if !ok {
		return &MovieNotFoundError{ID: v.MovieID}
	}
	cp := *v
	r.versions[v.ID] = &cp
	m.Status = MovieReady
	m.DurationSeconds = &durationSeconds
	if r.afterCommit != nil {
		r.afterCommit()
	}
	return nil
}

func (r *memRepo) CreateVersion(ctx context.Context, v *Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateVersion != nil {
		return r.failCreateVersion
	}
	cp := *v
	r.versions[v.ID] = &cp
	return nil
}

func (r *memRepo) GetVersion(_ context.Context, id uuid.UUID) (*Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[id]
	if !ok {
		return nil, errors.New("version not found")
	}
	cp := *v
	return &cp, nil
}

func (r *memRepo) ListVersions(ctx context.Context, movieID uuid.UUID) ([]*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Version
	for _, v := range r.versions {
		if v.MovieID == movieID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height > out[j].Height })
	return out, nil
}

func (r *memRepo) SetVersionStatus(_ context.Context, id uuid.UUID, status VersionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetVersionStatus != nil && status == VersionProcessing {
		return r.failSetVersionStatus
	}
	if v, ok := r.versions[id]; ok {
		v.Status = status
	}
	return nil
}

func (r *memRepo) MarkVersionReady(_ context.Context, id uuid.UUID, width *int, height int, fileSize int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[id]
	if !ok {
		return errors.New("version not found")
	}
	v.Width, v.Height, v.FileSize, v.Status = width, height, fileSize, VersionReady
	return nil
}

func (r *memRepo) CreateNotification(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicCreateNotification {
		panic("notification store exploded")
	}
	if r.failCreateNotification != nil {
		return r.failCreateNotification
	}
	cp := *n
	cp.CreatedAt = time.Now()
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *memRepo) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.notifications[i]
		if n.UserID != nil && *n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) MarkNotificationRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.UserID != nil && *n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *memRepo) RecoverStuck(_ context.Context, olderThan time.Time) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var versions, movies int64
	hasOriginal := make(map[uuid.UUID]bool)
	for _, v := range r.versions {
		if v.IsOriginal {
			hasOriginal[v.MovieID] = true
		}
		if v.Status == VersionWaiting || v.Status == VersionProcessing {
			v.Status = VersionError
			versions++
		}
	}
	for _, m := range r.movies {
		if m.Status == MovieProcessing && !hasOriginal[m.ID] && m.CreatedAt.Before(olderThan) {
			m.Status = MovieError
			movies++
		}
	}
	return versions, movies, nil
}

func (r *memRepo) movie(t *testing.T, id uuid.UUID) Movie {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	require.True(t, ok, "movie %s missing", id)
	return *m
}

func (r *memRepo) versionsOf(movieID uuid.UUID) []Version {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Version
	for _, v := range r.versions {
		if v.MovieID == movieID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height > out[j].Height })
	return out
}

func (r *memRepo) notificationsOf(movieID uuid.UUID) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.notifications {
		if n.MovieID != nil && *n.MovieID == movieID {
			out = append(out, *n)
		}
	}
	return out
}

// fakeMedia probes every source as sourceProbe and "transcodes" by writing
// a small file. Transcoded outputs probe at their target height.
type fakeMedia struct {
	mu           sync.Mutex
	sourceProbe  *ffmpeg.ProbeResult
	probeErr     error
	outputErr    error
	transcodeErr error
	outputs      map[string]int
}

func newFakeMedia(width, height int, formatName string) *fakeMedia {
	return &fakeMedia{
		sourceProbe: videoProbe(width, height, formatName, 30),
		outputs:     make(map[string]int),
	}
}

func videoProbe(width, height int, formatName string, duration float64) *ffmpeg.ProbeResult {
	return &ffmpeg.ProbeResult{
		Streams:      []ffmpeg.Stream{{Index: 0, CodecType: "video", CodecName: "h264", Width: width, Height: height}},
		Format:       ffmpeg.Format{FormatName: formatName, Duration: duration},
		Width:        width,
		Height:       height,
		VideoCodec:   "h264",
		VideoStreams: 1,
	}
}

func (f *fakeMedia) Probe(_ context.Context, path string) (*ffmpeg.ProbeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.outputs[path]; ok {
		if f.outputErr != nil {
			return nil, f.outputErr
		}
		return videoProbe(h*16/9, h, "mov,mp4,m4a,3gp,3g2,mj2", 30), nil
	}
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.sourceProbe, nil
}

func (f *fakeMedia) Transcode(_ context.Context, input, output string, height int) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", err
	}
	if err := os.WriteFile(output, make([]byte, 1024+height), 0o644); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transcodeErr != nil {
		return "", f.transcodeErr
	}
	f.outputs[output] = height
	return output, nil
}

// fakeSwarm writes files into the session directory instead of downloading.
type fakeSwarm struct {
	mu     sync.Mutex
	calls  int
	files  map[string]int
	err    error
	panics bool
}

func (s *fakeSwarm) Download(_ context.Context, _ string, dir string, onProgress torrent.Progress) (Transfer, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.panics {
		panic("swarm exploded")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}

	var files []torrent.File
	for name, size := range s.files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			return nil, err
		}
		files = append(files, torrent.File{Path: path, Size: int64(size)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	if onProgress != nil {
		onProgress(100, 0)
	}
	return &fakeTransfer{files: files}, nil
}

func (s *fakeSwarm) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeTransfer struct {
	files  []torrent.File
	closed bool
}

func (t *fakeTransfer) Files() []torrent.File { return t.files }
func (t *fakeTransfer) Close() error          { t.closed = true; return nil }

type testEnv struct {
	repo  *memRepo
	media *fakeMedia
	swarm *fakeSwarm
	sched *tasks.Handler
	paths config.Paths
	proc  *Processor
	svc   *Service
}

func newTestEnv(t *testing.T, media MediaToolkit) *testEnv {
	t.Helper()
	root := t.TempDir()
	paths := config.Paths{
		Storage:   filepath.Join(root, "storage"),
		Uploads:   filepath.Join(root, "temp", "uploads"),
		Downloads: filepath.Join(root, "temp", "downloads"),
	}
	require.NoError(t, os.MkdirAll(paths.Uploads, 0o755))
	require.NoError(t, os.MkdirAll(paths.Downloads, 0o755))

	e := &testEnv{
		repo:  newMemRepo(),
		swarm: &fakeSwarm{},
		sched: tasks.New(context.Background(), tasks.Config{MaxConcurrent: 1}),
		paths: paths,
	}
	if fm, ok := media.(*fakeMedia); ok {
		e.media = fm
	}
	notifier := NewNotifier(e.repo)
	e.proc = NewProcessor(e.repo, media, e.swarm, e.sched, notifier, ProcessorConfig{
		Paths:           paths,
		TorrentMaxBytes: 2 << 20,
	})
	e.svc = NewService(context.Background(), e.repo, e.proc, notifier)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.svc.Wait(ctx)
		_ = e.sched.Wait(ctx)
	})
	return e
}

// settle waits for detached work and scheduled transcodes to finish.
func (e *testEnv) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.svc.Wait(ctx))
	require.NoError(t, e.sched.Wait(ctx))
}

// writeUpload places a file of size bytes in the uploads directory.
func (e *testEnv) writeUpload(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(e.paths.Uploads, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

// newMovie inserts a processing movie owned by a fresh user.
func (e *testEnv) newMovie(t *testing.T) *Movie {
	t.Helper()
	owner := e.repo.addUser()
	m, err := e.svc.CreateMovie(context.Background(), Metadata{Title: "Duck Soup", UserID: &owner})
	require.NoError(t, err)
	return m
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}
