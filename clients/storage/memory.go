package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Memory is an in-process DocumentStore used by tests and local development.
// It mirrors the Firestore behavior the services depend on: generated ids
// written back into the document, merge sets, update-requires-existing
// document, idempotent array appends and insertion-ordered query results.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]*memCollection
	seq  int

	// Intercept, when set, runs before every write and may inject a failure.
	// Tests use it to exercise partial-failure paths.
	Intercept func(op, collection, id string) error
}

type memCollection struct {
	docs  map[string]map[string]any
	order []string
}

var _ DocumentStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{cols: make(map[string]*memCollection)}
}

func (m *Memory) intercept(op, collection, id string) error {
	if m.Intercept == nil {
		return nil
	}
	return m.Intercept(op, collection, id)
}

func (m *Memory) collection(name string) *memCollection {
	col, ok := m.cols[name]
	if !ok {
		col = &memCollection{docs: make(map[string]map[string]any)}
		m.cols[name] = col
	}
	return col
}

// normalize round-trips a value through JSON so stored documents look the way
// they would after a fetch, independent of the Go types the caller used.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeFields(fields map[string]any) (map[string]any, error) {
	out, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	doc, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fields did not normalize to an object")
	}
	return doc, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.cols[collection]
	if !ok {
		return NotFound
	}
	doc, ok := col.docs[id]
	if !ok {
		return NotFound
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *Memory) Query(ctx context.Context, collection, field string, value any, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want, err := normalize(value)
	if err != nil {
		return err
	}
	matches := make([]map[string]any, 0)
	if col, ok := m.cols[collection]; ok {
		for _, id := range col.order {
			doc := col.docs[id]
			if reflect.DeepEqual(doc[field], want) {
				matches = append(matches, doc)
			}
		}
	}
	raw, err := json.Marshal(matches)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *Memory) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("doc-%04d", m.seq)
	if err := m.intercept("create", collection, id); err != nil {
		return "", err
	}
	fields["id"] = id
	doc, err := normalizeFields(fields)
	if err != nil {
		return "", err
	}
	col := m.collection(collection)
	col.docs[id] = doc
	col.order = append(col.order, id)
	return id, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.intercept("set", collection, id); err != nil {
		return err
	}
	incoming, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	col := m.collection(collection)
	doc, ok := col.docs[id]
	if !ok {
		doc = make(map[string]any)
		col.docs[id] = doc
		col.order = append(col.order, id)
	}
	for k, v := range incoming {
		doc[k] = v
	}
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.intercept("update", collection, id); err != nil {
		return err
	}
	col, ok := m.cols[collection]
	if !ok {
		return NotFound
	}
	doc, ok := col.docs[id]
	if !ok {
		return NotFound
	}
	incoming, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	for k, v := range incoming {
		doc[k] = v
	}
	return nil
}

func (m *Memory) AppendToArray(ctx context.Context, collection, id, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.intercept("append", collection, id); err != nil {
		return err
	}
	col, ok := m.cols[collection]
	if !ok {
		return NotFound
	}
	doc, ok := col.docs[id]
	if !ok {
		return NotFound
	}
	elem, err := normalize(value)
	if err != nil {
		return err
	}
	arr, _ := doc[field].([]any)
	for _, existing := range arr {
		if reflect.DeepEqual(existing, elem) {
			return nil
		}
	}
	doc[field] = append(arr, elem)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.intercept("delete", collection, id); err != nil {
		return err
	}
	col, ok := m.cols[collection]
	if !ok {
		return nil
	}
	if _, ok := col.docs[id]; !ok {
		return nil
	}
	delete(col.docs, id)
	for i, existing := range col.order {
		if existing == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return nil
}
