package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Store with optimistic transaction semantics:
// transactions record the version of every document they read and commit
// only if none of those documents changed in the meantime.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]memDoc
}

type memDoc struct {
	data    json.RawMessage
	version uint64
}

func NewMemory() *Memory {
	return &Memory{cols: make(map[string]map[string]memDoc)}
}

func (m *Memory) Get(_ context.Context, collection, id string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.cols[collection][id]
	if !ok {
		return ErrNotFound
	}

	return json.Unmarshal(doc.data, out)
}

func (m *Memory) List(_ context.Context, collection string) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collectLocked(collection, Query{})
}

func (m *Memory) Query(_ context.Context, collection string, q Query) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collectLocked(collection, q)
}

func (m *Memory) Create(_ context.Context, collection string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(collection, id, data)

	return id, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(collection, id, data)

	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mergeLocked(collection, id, fields)
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cols[collection], id)

	return nil
}

func (m *Memory) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	return runWithRetry(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return contextError(ctx)
		}

		tx := &memTx{store: m, reads: make(map[memKey]uint64)}
		if err := fn(tx); err != nil {
			return err
		}

		return tx.commit()
	})
}

func (m *Memory) putLocked(collection, id string, data json.RawMessage) {
	col := m.cols[collection]
	if col == nil {
		col = make(map[string]memDoc)
		m.cols[collection] = col
	}

	col[id] = memDoc{data: data, version: col[id].version + 1}
}

func (m *Memory) mergeLocked(collection, id string, fields map[string]any) error {
	doc, ok := m.cols[collection][id]
	if !ok {
		return ErrNotFound
	}

	merged, err := mergeFields(doc.data, fields)
	if err != nil {
		return err
	}

	m.cols[collection][id] = memDoc{data: merged, version: doc.version + 1}

	return nil
}

func (m *Memory) collectLocked(collection string, q Query) ([]Doc, error) {
	var docs []Doc

	for id, doc := range m.cols[collection] {
		ok, err := matches(doc.data, q.Filters)
		if err != nil {
			return nil, err
		}

		if ok {
			docs = append(docs, Doc{ID: id, Data: doc.data})
		}
	}

	// Map iteration order is random; keep results stable for callers.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

type memKey struct {
	collection string
	id         string
}

type txWrite struct {
	key    memKey
	kind   writeKind
	data   json.RawMessage
	fields map[string]any
}

type writeKind int

const (
	writeSet writeKind = iota
	writeUpdate
	writeDelete
)

// memTx buffers writes and records the version of every read document.
// commit re-checks those versions under the store lock and applies the
// buffered writes only if none changed.
type memTx struct {
	store  *Memory
	reads  map[memKey]uint64 // 0 means "read as absent"
	writes []txWrite
}

func (t *memTx) Get(_ context.Context, collection, id string, out any) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	k := memKey{collection: collection, id: id}

	doc, ok := t.store.cols[collection][id]
	if !ok {
		t.reads[k] = 0
		return ErrNotFound
	}

	t.reads[k] = doc.version

	return json.Unmarshal(doc.data, out)
}

func (t *memTx) Create(_ context.Context, collection string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	id := uuid.NewString()
	t.writes = append(t.writes, txWrite{
		key:  memKey{collection: collection, id: id},
		kind: writeSet,
		data: data,
	})

	return id, nil
}

func (t *memTx) Set(_ context.Context, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	t.writes = append(t.writes, txWrite{
		key:  memKey{collection: collection, id: id},
		kind: writeSet,
		data: data,
	})

	return nil
}

func (t *memTx) Update(_ context.Context, collection, id string, fields map[string]any) error {
	t.writes = append(t.writes, txWrite{
		key:    memKey{collection: collection, id: id},
		kind:   writeUpdate,
		fields: fields,
	})

	return nil
}

func (t *memTx) Delete(_ context.Context, collection, id string) error {
	t.writes = append(t.writes, txWrite{
		key:  memKey{collection: collection, id: id},
		kind: writeDelete,
	})

	return nil
}

func (t *memTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	// Validate the read set: every document must still be at the version we
	// observed, including documents we read as absent.
	for k, version := range t.reads {
		current := t.store.cols[k.collection][k.id].version
		if current != version {
			return ErrConflict
		}
	}

	for _, w := range t.writes {
		switch w.kind {
		case writeSet:
			t.store.putLocked(w.key.collection, w.key.id, w.data)
		case writeUpdate:
			if err := t.store.mergeLocked(w.key.collection, w.key.id, w.fields); err != nil {
				return err
			}
		case writeDelete:
			delete(t.store.cols[w.key.collection], w.key.id)
		}
	}

	return nil
}

func mergeFields(data json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	for k, v := range fields {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	return merged, nil
}

func matches(data json.RawMessage, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decoding document: %w", err)
	}

	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false, nil
		}

		cmp, ok := compareValues(v, f.Value)
		if !ok {
			return false, nil
		}

		switch f.Op {
		case OpEqual:
			if cmp != 0 {
				return false, nil
			}
		case OpGTE:
			if cmp < 0 {
				return false, nil
			}
		case OpLTE:
			if cmp > 0 {
				return false, nil
			}
		case OpLT:
			if cmp >= 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}

	return true, nil
}

// compareValues compares a decoded JSON value against a filter value.
// Strings compare lexically; everything numeric is compared as float64.
func compareValues(docVal, filterVal any) (int, bool) {
	if s, ok := docVal.(string); ok {
		fs, ok := filterVal.(string)
		if !ok {
			return 0, false
		}

		return strings.Compare(s, fs), true
	}

	dn, ok := toFloat(docVal)
	if !ok {
		return 0, false
	}

	fn, ok := toFloat(filterVal)
	if !ok {
		return 0, false
	}

	switch {
	case dn < fn:
		return -1, true
	case dn > fn:
		return 1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
