package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// DocumentStore is an in-memory services.DocumentStore. Merge deep-merges
// nested maps the way Firestore's MergeAll does and, like a merge inside a
// transaction, refuses unknown IDs.
type DocumentStore struct {
	mu          sync.Mutex
	collections map[string]*collection
	failures    map[string]error
	calls       map[string]int
}

type collection struct {
	order []string
	docs  map[string]map[string]any
}

var _ services.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		collections: make(map[string]*collection),
		failures:    make(map[string]error),
		calls:       make(map[string]int),
	}
}

// FailNext makes the next call of op ("list", "create", "merge" or "delete")
// return err without touching the data.
func (s *DocumentStore) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (s *DocumentStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Get returns a copy of one document.
func (s *DocumentStore) Get(coll, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[coll]
	if !ok {
		return nil, false
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	return cloneMap(doc), true
}

// Seed stores fields under id as-is, bypassing call counting.
func (s *DocumentStore) Seed(coll, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(coll, id, cloneMap(fields))
}

func (s *DocumentStore) List(ctx context.Context, coll string) ([]services.Document, error) {
	if err := s.begin(ctx, "list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[coll]
	if !ok {
		return []services.Document{}, nil
	}
	out := make([]services.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, services.Document{ID: id, Fields: cloneMap(c.docs[id])})
	}
	return out, nil
}

func (s *DocumentStore) Create(ctx context.Context, coll string, fields map[string]any) (string, error) {
	if err := s.begin(ctx, "create"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newDocID()
	s.put(coll, id, cloneMap(fields))
	return id, nil
}

func (s *DocumentStore) Merge(ctx context.Context, coll, id string, fields map[string]any) error {
	if err := s.begin(ctx, "merge"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(coll)
	existing, ok := c.docs[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", coll, id, services.ErrDocumentNotFound)
	}
	deepMerge(existing, fields)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, coll, id string) error {
	if err := s.begin(ctx, "delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[coll]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *DocumentStore) begin(ctx context.Context, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return ctx.Err()
}

func (s *DocumentStore) collection(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

func (s *DocumentStore) put(coll, id string, fields map[string]any) {
	c := s.collection(coll)
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = fields
}

// newDocID mimics Firestore's 20 character auto IDs.
func newDocID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				deepMerge(existing, nested)
				continue
			}
		}
		dst[k] = cloneValue(v)
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	}
	return v
}
