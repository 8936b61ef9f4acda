package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps JSON-encoded documents in process. It backs tests and
// STORE_DRIVER=memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) Driver() string                { return "memory" }
func (s *MemoryStore) Ping(_ context.Context) error  { return nil }
func (s *MemoryStore) Close(_ context.Context) error { return nil }

func (s *MemoryStore) collection(name string) backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	return c
}

type memoryCollection struct {
	mu    sync.RWMutex
	docs  map[string][]byte
	order []string
}

func (m *memoryCollection) findAll(ctx context.Context, out any) error {
	return m.find(ctx, nil, out)
}

func (m *memoryCollection) find(_ context.Context, f Filter, out any) error {
	want, err := encodeFilter(f)
	if err != nil {
		return err
	}

	m.mu.RLock()
	matched := make([][]byte, 0, len(m.order))
	for _, id := range m.order {
		doc := m.docs[id]
		ok, err := matches(doc, want)
		if err != nil {
			m.mu.RUnlock()
			return err
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	m.mu.RUnlock()

	return decodeList(matched, out)
}

func (m *memoryCollection) findByID(_ context.Context, id string, out any) error {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(doc, out)
}

func (m *memoryCollection) insert(_ context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; exists {
		return ErrDuplicateID
	}
	m.docs[id] = raw
	m.order = append(m.order, id)
	return nil
}

func (m *memoryCollection) replace(_ context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; !exists {
		return ErrNotFound
	}
	m.docs[id] = raw
	return nil
}

func (m *memoryCollection) delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; !exists {
		return false, nil
	}
	delete(m.docs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memoryCollection) count(_ context.Context, f Filter) (int64, error) {
	want, err := encodeFilter(f)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, doc := range m.docs {
		ok, err := matches(doc, want)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// encodeFilter renders each filter value as compact JSON so it can be
// compared byte-for-byte with the stored field.
func encodeFilter(f Filter) (map[string][]byte, error) {
	if len(f) == 0 {
		return nil, nil
	}
	out := make(map[string][]byte, len(f))
	for k, v := range f {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

func matches(doc []byte, want map[string][]byte) (bool, error) {
	if len(want) == 0 {
		return true, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, err
	}
	for k, v := range want {
		got, ok := fields[k]
		if !ok {
			return false, nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, got); err != nil {
			return false, err
		}
		if !bytes.Equal(buf.Bytes(), v) {
			return false, nil
		}
	}
	return true, nil
}

// decodeList unmarshals raw JSON documents into out, a pointer to a slice.
func decodeList(docs [][]byte, out any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')
	return json.Unmarshal(buf.Bytes(), out)
}
