package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

const defaultChunkSize = 256 << 10

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore is an in-memory services.ObjectStore. Put reports progress once
// per chunk and can be told to fail part way through.
type ObjectStore struct {
	mu        sync.Mutex
	objects   map[string]Object
	chunkSize int
	baseURL   string

	failAfter int64
	putErr    error
	urlErr    error
	puts      int
}

var _ services.ObjectStore = (*ObjectStore)(nil)

func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		objects:   make(map[string]Object),
		chunkSize: defaultChunkSize,
		baseURL:   "https://storage.local/o",
	}
}

// SetChunkSize changes how often Put reports progress.
func (s *ObjectStore) SetChunkSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.chunkSize = n
	}
}

// FailPutAfter makes every later Put fail with err once written reaches n
// bytes. n <= 0 fails before the first byte.
func (s *ObjectStore) FailPutAfter(n int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = n
	s.putErr = err
}

// FailURL makes URL return err.
func (s *ObjectStore) FailURL(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlErr = err
}

// Puts returns the number of Put calls.
func (s *ObjectStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Seed stores an object directly.
func (s *ObjectStore) Seed(key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
}

// Object returns a copy of the stored object.
func (s *ObjectStore) Object(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, opts services.PutOptions) error {
	s.mu.Lock()
	s.puts++
	chunkSize := s.chunkSize
	failAfter, putErr := s.failAfter, s.putErr
	s.mu.Unlock()

	if putErr != nil && failAfter <= 0 {
		return putErr
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			written += int64(n)
			if putErr != nil && written >= failAfter {
				return putErr
			}
			if opts.Progress != nil {
				opts.Progress(written)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read upload body: %w", err)
		}
	}

	meta := make(map[string]string, len(opts.Metadata))
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	s.mu.Lock()
	s.objects[key] = Object{Data: buf.Bytes(), ContentType: opts.ContentType, Metadata: meta}
	s.mu.Unlock()
	return nil
}

func (s *ObjectStore) URL(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urlErr != nil {
		return "", s.urlErr
	}
	if _, ok := s.objects[key]; !ok {
		return "", services.ErrObjectNotFound
	}
	return s.baseURL + "/" + url.PathEscape(key) + "?alt=media", nil
}

func (s *ObjectStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, services.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), obj.Data...))), nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return services.ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}
