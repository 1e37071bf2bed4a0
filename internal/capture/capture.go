// Package capture provides AudioCapture implementations for headless runs:
// a pre-recorded file, a device that always refuses, and a wrapper that
// enforces a single owner.
package capture

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hireflow/interviewer/internal/interview"
	"github.com/hireflow/interviewer/internal/utils"
)

var (
	ErrBusy      = errors.New("capture: device already in use")
	ErrDenied    = errors.New("capture: permission denied")
	ErrNoVideo   = errors.New("capture: video not supported by this device")
	ErrNoSources = errors.New("capture: no recordings configured")
)

// File replays pre-recorded media, cycling through Paths in order. Each
// Acquire reads the next file; Stop hands its bytes back.
type File struct {
	Paths []string

	mu   sync.Mutex
	next int
}

func NewFile(paths ...string) *File { return &File{Paths: paths} }

func (f *File) Acquire(ctx context.Context, opts interview.CaptureOptions) (interview.Recording, error) {
	const op = "File.Acquire"

	if opts.Video {
		return nil, utils.E(utils.CodeInvalidArgument, op, "video capture requested", ErrNoVideo)
	}
	f.mu.Lock()
	if len(f.Paths) == 0 {
		f.mu.Unlock()
		return nil, utils.E(utils.CodeUnavailable, op, "no recording available", ErrNoSources)
	}
	path := f.Paths[f.next%len(f.Paths)]
	f.next++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to open recording", err)
	}
	return &fileRecording{media: interview.Media{Data: data, ContentType: contentType(path)}}, nil
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type fileRecording struct {
	once  sync.Once
	media interview.Media
}

func (r *fileRecording) Stop() (interview.Media, error) {
	var out interview.Media
	r.once.Do(func() { out = r.media })
	return out, nil
}

// Denied never grants access.
type Denied struct{}

func (Denied) Acquire(ctx context.Context, opts interview.CaptureOptions) (interview.Recording, error) {
	return nil, utils.E(utils.CodeForbidden, "Denied.Acquire", "capture permission denied", ErrDenied)
}

// Exclusive lets at most one Recording of the wrapped device exist.
type Exclusive struct {
	inner interview.AudioCapture

	mu    sync.Mutex
	owned bool
}

func NewExclusive(inner interview.AudioCapture) *Exclusive { return &Exclusive{inner: inner} }

func (e *Exclusive) Acquire(ctx context.Context, opts interview.CaptureOptions) (interview.Recording, error) {
	const op = "Exclusive.Acquire"

	e.mu.Lock()
	if e.owned {
		e.mu.Unlock()
		return nil, utils.E(utils.CodeConflict, op, "capture device already owned", ErrBusy)
	}
	e.owned = true
	e.mu.Unlock()

	rec, err := e.inner.Acquire(ctx, opts)
	if err != nil {
		e.release()
		return nil, err
	}
	return &exclusiveRecording{Recording: rec, release: e.release}, nil
}

// InUse reports whether a Recording is outstanding.
func (e *Exclusive) InUse() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owned
}

func (e *Exclusive) release() {
	e.mu.Lock()
	e.owned = false
	e.mu.Unlock()
}

type exclusiveRecording struct {
	interview.Recording
	once    sync.Once
	release func()
}

func (r *exclusiveRecording) Stop() (interview.Media, error) {
	m, err := r.Recording.Stop()
	r.once.Do(r.release)
	return m, err
}
