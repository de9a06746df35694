package media

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"mediatrack/clients/storage"
	"mediatrack/models"
	"mediatrack/set"
)

// Service owns the local projection of one user's media records and every
// mutation issued against the backing document store. A successful remote
// write is the source of truth for the fields it touched; everything else
// trusts the last full Load.
type Service interface {
	// Load fetches all records owned by ownerID and replaces the projection
	// wholesale. On failure the previous projection is left intact.
	Load(ctx context.Context, ownerID string) error

	// Records returns a copy of the current projection in load order.
	Records() []models.MediaRecord

	// Get returns a copy of one record from the projection.
	Get(id string) (models.MediaRecord, bool)

	// Create validates the draft, stores it with status planned, then reloads
	// the projection and returns the canonical record with its generated id.
	Create(ctx context.Context, ownerID string, draft models.Draft) (*models.MediaRecord, error)

	// UpdateField submits a single-field partial update. At most one mutation
	// per record may be in flight; a second call is rejected, not queued.
	UpdateField(ctx context.Context, id, field string, value any) error

	// Delete removes the record remotely, then drops it from the projection.
	Delete(ctx context.Context, id string) error

	// AddComment appends a note to the record's comment list.
	AddComment(ctx context.Context, id, text string) (*models.Comment, error)

	// EditCommentAt replaces the text of the comment at index in the current
	// local snapshot.
	EditCommentAt(ctx context.Context, id string, index int, text string) error

	// DeleteCommentAt removes the comment at index in the current local
	// snapshot.
	DeleteCommentAt(ctx context.Context, id string, index int) error
}

const mediaCollection = "media"

type service struct {
	db storage.DocumentStore

	mu       sync.Mutex
	records  []models.MediaRecord
	index    map[string]int
	inflight map[string]struct{}
}

var _ Service = (*service)(nil)

func NewService(db storage.DocumentStore) Service {
	return &service{
		db:       db,
		index:    make(map[string]int),
		inflight: make(map[string]struct{}),
	}
}

func (s *service) Load(ctx context.Context, ownerID string) error {
	var records []models.MediaRecord
	if err := s.db.Query(ctx, mediaCollection, "ownerId", ownerID, &records); err != nil {
		return &models.FetchError{Op: "load media records", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.reindexLocked()
	return nil
}

func (s *service) reindexLocked() {
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
}

func (s *service) Records() []models.MediaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MediaRecord, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

func (s *service) Get(id string) (models.MediaRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[id]
	if !ok {
		return models.MediaRecord{}, false
	}
	return cloneRecord(s.records[idx]), true
}

func cloneRecord(r models.MediaRecord) models.MediaRecord {
	r.Tags = slices.Clone(r.Tags)
	r.Comments = slices.Clone(r.Comments)
	if r.Rating != nil {
		rating := *r.Rating
		r.Rating = &rating
	}
	return r
}

func (s *service) Create(ctx context.Context, ownerID string, draft models.Draft) (*models.MediaRecord, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "ownerId", Reason: "required"}
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"ownerId":     ownerID,
		"title":       draft.Title,
		"description": draft.Description,
		"imageUrl":    draft.ImageURL,
		"kind":        draft.Kind,
		"tags":        dedupeTags(draft.Tags),
		"status":      models.StatusPlanned,
		"watchedDate": draft.WatchedDate,
		"favorite":    draft.Favorite,
		"createdAt":   time.Now().UTC(),
	}
	if draft.Rating != nil {
		fields["rating"] = *draft.Rating
	}

	id, err := s.db.Create(ctx, mediaCollection, fields)
	if err != nil {
		return nil, &models.WriteError{Op: "create media record", Err: err}
	}
	// Reload so the projection holds the canonical document, generated id
	// included.
	if err := s.Load(ctx, ownerID); err != nil {
		return nil, err
	}
	record, ok := s.Get(id)
	if !ok {
		return nil, &models.FetchError{Op: "load created record", Err: storage.NotFound}
	}
	return &record, nil
}

func dedupeTags(tags []string) []string {
	seen := set.New[string]()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen.Contains(tag) {
			continue
		}
		seen.Add(tag)
		out = append(out, tag)
	}
	return out
}

func (s *service) UpdateField(ctx context.Context, id, field string, value any) error {
	normalized, err := normalizeFieldValue(field, value)
	if err != nil {
		return err
	}
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	if err := s.db.Update(ctx, mediaCollection, id, map[string]any{field: normalized}); err != nil {
		return &models.WriteError{Op: fmt.Sprintf("update %s", field), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.index[id]; ok {
		applyField(&s.records[idx], field, normalized)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	if err := s.db.Delete(ctx, mediaCollection, id); err != nil {
		return &models.WriteError{Op: "delete media record", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[id]
	if !ok {
		return nil
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.reindexLocked()
	return nil
}

// acquire marks a mutation in flight for the record. The record must be part
// of the current projection.
func (s *service) acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return &models.WriteError{Op: "locate media record", Err: storage.NotFound}
	}
	if _, busy := s.inflight[id]; busy {
		return &models.ConcurrentMutationError{ID: id}
	}
	s.inflight[id] = struct{}{}
	return nil
}

func (s *service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// normalizeFieldValue validates a single-field update before any remote call
// and coerces the value to the projection's Go type. JSON-decoded numbers
// arrive as float64.
func normalizeFieldValue(field string, value any) (any, error) {
	switch field {
	case "title", "description", "imageUrl":
		text, ok := value.(string)
		if !ok || strings.TrimSpace(text) == "" {
			return nil, &models.ValidationError{Field: field, Reason: "required"}
		}
		return text, nil
	case "watchedDate":
		text, ok := value.(string)
		if !ok {
			return nil, &models.ValidationError{Field: field, Reason: "must be a date string"}
		}
		return text, nil
	case "kind":
		kind, err := toKind(value)
		if err != nil {
			return nil, err
		}
		return kind, nil
	case "status":
		status, err := toStatus(value)
		if err != nil {
			return nil, err
		}
		return status, nil
	case "favorite":
		flag, ok := value.(bool)
		if !ok {
			return nil, &models.ValidationError{Field: field, Reason: "must be a boolean"}
		}
		return flag, nil
	case "rating":
		return toRating(value)
	case "tags":
		tags, err := toTags(value)
		if err != nil {
			return nil, err
		}
		return dedupeTags(tags), nil
	case "comments":
		comments, ok := value.([]models.Comment)
		if !ok {
			return nil, &models.ValidationError{Field: field, Reason: "must be a comment list"}
		}
		return comments, nil
	default:
		return nil, &models.ValidationError{Field: field, Reason: "not an updatable field"}
	}
}

func toStatus(value any) (models.Status, error) {
	text, ok := value.(string)
	if !ok {
		if status, ok := value.(models.Status); ok {
			text = string(status)
		} else {
			return "", &models.ValidationError{Field: "status", Reason: "must be a string"}
		}
	}
	status := models.Status(text)
	if !status.Valid() {
		return "", &models.ValidationError{Field: "status", Reason: "unknown status"}
	}
	return status, nil
}

func toKind(value any) (models.MediaKind, error) {
	text, ok := value.(string)
	if !ok {
		if kind, ok := value.(models.MediaKind); ok {
			text = string(kind)
		} else {
			return "", &models.ValidationError{Field: "kind", Reason: "must be a string"}
		}
	}
	switch kind := models.MediaKind(text); kind {
	case models.KindMovie, models.KindGame, models.KindBook:
		return kind, nil
	}
	return "", &models.ValidationError{Field: "kind", Reason: "unknown kind"}
}

// toRating accepts nil to clear the rating, or an integer 0-10.
func toRating(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var rating int
	switch v := value.(type) {
	case int:
		rating = v
	case *int:
		if v == nil {
			return nil, nil
		}
		rating = *v
	case float64:
		if v != float64(int(v)) {
			return nil, &models.ValidationError{Field: "rating", Reason: "must be an integer"}
		}
		rating = int(v)
	default:
		return nil, &models.ValidationError{Field: "rating", Reason: "must be an integer"}
	}
	if rating < 0 || rating > 10 {
		return nil, &models.ValidationError{Field: "rating", Reason: "must be between 0 and 10"}
	}
	return rating, nil
}

func toTags(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			tag, ok := item.(string)
			if !ok {
				return nil, &models.ValidationError{Field: "tags", Reason: "must be a string list"}
			}
			tags = append(tags, tag)
		}
		return tags, nil
	default:
		return nil, &models.ValidationError{Field: "tags", Reason: "must be a string list"}
	}
}

func applyField(record *models.MediaRecord, field string, value any) {
	switch field {
	case "title":
		record.Title = value.(string)
	case "description":
		record.Description = value.(string)
	case "imageUrl":
		record.ImageURL = value.(string)
	case "watchedDate":
		record.WatchedDate = value.(string)
	case "kind":
		record.Kind = value.(models.MediaKind)
	case "status":
		record.Status = value.(models.Status)
	case "favorite":
		record.Favorite = value.(bool)
	case "rating":
		if value == nil {
			record.Rating = nil
		} else {
			rating := value.(int)
			record.Rating = &rating
		}
	case "tags":
		record.Tags = value.([]string)
	case "comments":
		record.Comments = value.([]models.Comment)
	}
}
