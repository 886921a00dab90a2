package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// File is a local file picked for upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk. The content type comes from the
// extension, or from sniffing the first bytes when the extension is unknown.
func FileFromPath(p string) (File, error) {
	info, err := os.Stat(p)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", p)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
	if contentType == "" {
		head := make([]byte, 512)
		f, err := os.Open(p)
		if err != nil {
			return File{}, fmt.Errorf("open %s: %w", p, err)
		}
		n, _ := io.ReadFull(f, head)
		_ = f.Close()
		contentType = http.DetectContentType(head[:n])
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return File{
		Name:        filepath.Base(p),
		ContentType: contentType,
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(p) },
	}, nil
}

// FileFromBytes describes an in-memory file such as a multipart upload.
func FileFromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// UploadPolicy limits what may be uploaded as a profile photo.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultUploadPolicy allows common web image formats up to 5 MiB.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxBytes:     5 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}

// Allows reports whether contentType is on the allow-list.
func (p UploadPolicy) Allows(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range p.AllowedTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// Check validates a file's declared type and size.
func (p UploadPolicy) Check(contentType string, size int64) error {
	verr := &ValidationError{}
	if !p.Allows(contentType) {
		verr.add("file", fmt.Sprintf("content type %q is not allowed", contentType))
	}
	switch {
	case size <= 0:
		verr.add("size", "file is empty")
	case p.MaxBytes > 0 && size > p.MaxBytes:
		verr.add("size", fmt.Sprintf("file is %d bytes, the limit is %d", size, p.MaxBytes))
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// UploadState is the current upload session.
type UploadState struct {
	FileName         string
	ContentType      string
	BytesTransferred int64
	TotalBytes       int64
	ResultURL        string
	Err              error
	InFlight         bool
}

// UploadEvent is one element of an upload's progress stream. The last event
// has Done or Err set.
type UploadEvent struct {
	BytesTransferred int64
	TotalBytes       int64
	URL              string
	Err              error
	Done             bool
}

// Percent returns the progress in the range 0 to 100.
func (e UploadEvent) Percent() float64 {
	if e.TotalBytes <= 0 {
		return 0
	}
	return 100 * float64(e.BytesTransferred) / float64(e.TotalBytes)
}

// Terminal reports whether e ends the stream.
func (e UploadEvent) Terminal() bool { return e.Done || e.Err != nil }

// AvatarUploader streams one picked file at a time into object storage.
type AvatarUploader struct {
	objects ObjectStore
	prefix  string
	policy  UploadPolicy
	logger  *slog.Logger
	newID   func() string

	mu    sync.Mutex
	file  *File
	state UploadState
}

// NewAvatarUploader returns an uploader writing under prefix. objects may be
// nil when storage is not configured; Start then fails with ErrStorageUnavailable.
func NewAvatarUploader(objects ObjectStore, prefix string, policy UploadPolicy, logger *slog.Logger) *AvatarUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarUploader{
		objects: objects,
		prefix:  strings.Trim(prefix, "/"),
		policy:  policy,
		logger:  logger.With("component", "avatar_uploader"),
		newID:   uuid.NewString,
	}
}

// Policy returns the policy uploads are checked against.
func (u *AvatarUploader) Policy() UploadPolicy { return u.policy }

// Pick replaces the upload session with a fresh one for f.
func (u *AvatarUploader) Pick(f File) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state.InFlight {
		return fail(ErrUploadInFlight)
	}
	picked := f
	u.file = &picked
	u.state = UploadState{FileName: f.Name, ContentType: f.ContentType, TotalBytes: f.Size}
	return nil
}

// Reset discards the session.
func (u *AvatarUploader) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state.InFlight {
		return
	}
	u.file = nil
	u.state = UploadState{}
}

// State returns a snapshot of the session.
func (u *AvatarUploader) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// InFlight reports whether a transfer is running.
func (u *AvatarUploader) InFlight() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.InFlight
}

// Start begins transferring the picked file. The returned channel carries
// progress events in strictly increasing order, then exactly one terminal
// event, then is closed. The caller must drain it.
func (u *AvatarUploader) Start(ctx context.Context) (<-chan UploadEvent, error) {
	u.mu.Lock()
	if u.file == nil {
		u.mu.Unlock()
		return nil, fail(ErrNoFileSelected)
	}
	if u.objects == nil {
		err := fail(ErrStorageUnavailable)
		u.state.Err = err
		u.mu.Unlock()
		u.logger.Error("Upload refused: object storage is not configured.")
		return nil, err
	}
	if err := u.policy.Check(u.file.ContentType, u.file.Size); err != nil {
		u.state.Err = err
		u.mu.Unlock()
		return nil, err
	}
	if u.state.InFlight {
		u.mu.Unlock()
		return nil, fail(ErrUploadInFlight)
	}
	file := *u.file
	u.state = UploadState{
		FileName:    file.Name,
		ContentType: file.ContentType,
		TotalBytes:  file.Size,
		InFlight:    true,
	}
	u.mu.Unlock()

	key := u.objectKey(file.Name)
	events := make(chan UploadEvent, 8)
	go u.transfer(ctx, file, key, events)
	return events, nil
}

func (u *AvatarUploader) transfer(ctx context.Context, file File, key string, events chan<- UploadEvent) {
	defer close(events)
	logCtx := u.logger.With("objectKey", key, "bytes", file.Size)
	logCtx.Info("Starting upload.")

	total := file.Size
	var last int64
	progress := func(written int64) {
		if written <= last || written >= total {
			return
		}
		last = written
		u.mu.Lock()
		u.state.BytesTransferred = written
		u.mu.Unlock()
		events <- UploadEvent{BytesTransferred: written, TotalBytes: total}
	}

	url, err := u.put(ctx, file, key, progress)
	if err != nil {
		logCtx.Error("Upload failed.", "error", err)
		u.mu.Lock()
		u.state.InFlight = false
		u.state.Err = err
		u.mu.Unlock()
		events <- UploadEvent{BytesTransferred: last, TotalBytes: total, Err: err}
		return
	}

	u.mu.Lock()
	u.state.InFlight = false
	u.state.BytesTransferred = total
	u.state.ResultURL = url
	u.mu.Unlock()
	logCtx.Info("Upload complete.")
	events <- UploadEvent{BytesTransferred: total, TotalBytes: total, URL: url, Done: true}
}

func (u *AvatarUploader) put(ctx context.Context, file File, key string, progress func(int64)) (string, error) {
	if file.Open == nil {
		return "", passThrough(ErrTransferFailed, fmt.Errorf("file %s cannot be read", file.Name))
	}
	r, err := file.Open()
	if err != nil {
		return "", passThrough(ErrTransferFailed, err)
	}
	defer r.Close()

	err = u.objects.Put(ctx, key, r, PutOptions{
		ContentType: file.ContentType,
		Size:        file.Size,
		Progress:    progress,
	})
	if err != nil {
		return "", passThrough(ErrTransferFailed, err)
	}
	url, err := u.objects.URL(ctx, key)
	if err != nil {
		return "", passThrough(ErrTransferFailed, err)
	}
	if url == "" {
		return "", passThrough(ErrTransferFailed, fmt.Errorf("no download URL for %s", key))
	}
	return url, nil
}

// Run starts the upload and drains it, calling onProgress for each
// non-terminal event. It returns the download URL.
func (u *AvatarUploader) Run(ctx context.Context, onProgress func(UploadEvent)) (string, error) {
	events, err := u.Start(ctx)
	if err != nil {
		return "", err
	}
	var url string
	var runErr error
	for ev := range events {
		switch {
		case ev.Err != nil:
			runErr = ev.Err
		case ev.Done:
			url = ev.URL
		case onProgress != nil:
			onProgress(ev)
		}
	}
	return url, runErr
}

func (u *AvatarUploader) objectKey(name string) string {
	base := u.newID() + "_" + sanitizeFileName(name)
	if u.prefix == "" {
		return base
	}
	return path.Join(u.prefix, base)
}

// sanitizeFileName keeps letters, digits, dot, dash and underscore.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	if out == "" {
		return "file"
	}
	return out
}
