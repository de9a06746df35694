package storage

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"mediatrack/utils"
)

// NotFound is returned when a document id does not exist in its collection.
var NotFound = errors.New("document not found")

// DocumentStore is the set of document-database primitives the services rely
// on: lookup by id, equality queries on a single field, creation with a
// generated id, merge upsert, partial field update, append-to-array, delete.
// The Firestore implementation is the production backend; Memory backs tests.
type DocumentStore interface {
	// Get decodes the document into out, which must be a struct pointer.
	Get(ctx context.Context, collection, id string, out any) error
	// Query decodes every document whose field equals value into out, which
	// must be a pointer to a slice of structs.
	Query(ctx context.Context, collection, field string, value any, out any) error
	// Create stores fields under a generated document id. The id is written
	// into the document under the "id" key and returned.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set writes fields with merge semantics, creating the document if needed.
	// Fields absent from the write are preserved.
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Update overwrites exactly the named fields. Fails if the document does
	// not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// AppendToArray appends value to an array field. Appending a value that is
	// already present with identical contents is a no-op.
	AppendToArray(ctx context.Context, collection, id, field string, value any) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

type firestoreStore struct {
	client *firestore.Client
}

var _ DocumentStore = (*firestoreStore)(nil)

func NewFirestore(client *firestore.Client) DocumentStore {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Get(ctx context.Context, collection, id string, out any) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		return NotFound
	}
	if err != nil {
		return err
	}
	return snap.DataTo(out)
}

func (s *firestoreStore) Query(ctx context.Context, collection, field string, value any, out any) error {
	iter := s.client.Collection(collection).
		Where(field, "==", value).
		Documents(ctx)
	defer iter.Stop()

	var docs []*firestore.DocumentSnapshot
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return utils.SnapshotsTo(docs, out)
}

func (s *firestoreStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref := s.client.Collection(collection).NewDoc()
	fields["id"] = ref.ID
	if _, err := ref.Set(ctx, fields); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *firestoreStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}

func (s *firestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	return err
}

func (s *firestoreStore) AppendToArray(ctx context.Context, collection, id, field string, value any) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.ArrayUnion(value)},
	})
	return err
}

func (s *firestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}
