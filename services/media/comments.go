package media

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"mediatrack/clients/storage"
	"mediatrack/models"
)

// Comment operations are layered on the same per-record mutation guard as
// field updates. Positional indexes are only meaningful within the session's
// own snapshot: edits and deletions resolve the index locally, then match the
// targeted entry by its id against a freshly fetched document before the
// whole-field overwrite. A concurrent append from another session between the
// fetch and the write is still overwritten; the store has no compare-and-swap
// primitive.

func (s *service) AddComment(ctx context.Context, id, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &models.ValidationError{Field: "text", Reason: "required"}
	}
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	comment := models.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	// The local copy and the remote array are written with the identical
	// value, so the append primitive stays idempotent-safe.
	if err := s.db.AppendToArray(ctx, mediaCollection, id, "comments", comment); err != nil {
		return nil, &models.WriteError{Op: "append comment", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.index[id]; ok {
		s.records[idx].Comments = append(s.records[idx].Comments, comment)
	}
	return &comment, nil
}

func (s *service) EditCommentAt(ctx context.Context, id string, index int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &models.ValidationError{Field: "text", Reason: "required"}
	}
	return s.rewriteComments(ctx, id, index, func(comments []models.Comment, at int) []models.Comment {
		comments[at].Text = text
		return comments
	})
}

func (s *service) DeleteCommentAt(ctx context.Context, id string, index int) error {
	return s.rewriteComments(ctx, id, index, func(comments []models.Comment, at int) []models.Comment {
		return append(comments[:at], comments[at+1:]...)
	})
}

// rewriteComments resolves index against the local snapshot, relocates the
// same entry in a fresh fetch of the document, applies mutate and overwrites
// the whole comments field.
func (s *service) rewriteComments(ctx context.Context, id string, index int, mutate func([]models.Comment, int) []models.Comment) error {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return &models.WriteError{Op: "locate media record", Err: storage.NotFound}
	}
	local := s.records[idx].Comments
	if index < 0 || index >= len(local) {
		length := len(local)
		s.mu.Unlock()
		return &models.IndexError{Index: index, Length: length}
	}
	target := local[index]
	s.mu.Unlock()

	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	var remote models.MediaRecord
	if err := s.db.Get(ctx, mediaCollection, id, &remote); err != nil {
		return &models.FetchError{Op: "fetch comments", Err: err}
	}
	at := findComment(remote.Comments, target)
	if at < 0 {
		log.Warn().Str("record", id).Int("index", index).Msg("comment no longer present in remote snapshot")
		return &models.IndexError{Index: index, Length: len(remote.Comments)}
	}

	updated := mutate(append([]models.Comment(nil), remote.Comments...), at)
	if err := s.db.Update(ctx, mediaCollection, id, map[string]any{"comments": updated}); err != nil {
		return &models.WriteError{Op: "rewrite comments", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.index[id]; ok {
		s.records[idx].Comments = updated
	}
	return nil
}

// findComment matches by id when both sides carry one, otherwise by content.
// Entries written before ids were introduced have none.
func findComment(comments []models.Comment, target models.Comment) int {
	for i, c := range comments {
		if target.ID != "" && c.ID != "" {
			if c.ID == target.ID {
				return i
			}
			continue
		}
		if c.Text == target.Text && c.CreatedAt.Equal(target.CreatedAt) {
			return i
		}
	}
	return -1
}
