package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrack/clients/storage"
)

type doc struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Owner string   `json:"owner"`
	Tags  []string `json:"tags"`
}

func TestCreateWritesGeneratedIDIntoDocument(t *testing.T) {
	db := storage.NewMemory()
	id, err := db.Create(context.Background(), "things", map[string]any{"name": "first"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got doc
	require.NoError(t, db.Get(context.Background(), "things", id, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "first", got.Name)
}

func TestGetMissingDocument(t *testing.T) {
	db := storage.NewMemory()
	var got doc
	err := db.Get(context.Background(), "things", "nope", &got)
	assert.ErrorIs(t, err, storage.NotFound)
}

func TestSetMergesFields(t *testing.T) {
	db := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, "things", "t1", map[string]any{"name": "first", "owner": "a"}))
	require.NoError(t, db.Set(ctx, "things", "t1", map[string]any{"owner": "b"}))

	var got doc
	require.NoError(t, db.Get(ctx, "things", "t1", &got))
	assert.Equal(t, "first", got.Name, "merge keeps fields absent from the write")
	assert.Equal(t, "b", got.Owner)
}

func TestUpdateRequiresExistingDocument(t *testing.T) {
	db := storage.NewMemory()
	err := db.Update(context.Background(), "things", "nope", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, storage.NotFound)
}

func TestQueryPreservesInsertionOrder(t *testing.T) {
	db := storage.NewMemory()
	ctx := context.Background()
	for _, name := range []string{"one", "two", "three"} {
		_, err := db.Create(ctx, "things", map[string]any{"name": name, "owner": "a"})
		require.NoError(t, err)
	}
	_, err := db.Create(ctx, "things", map[string]any{"name": "other", "owner": "b"})
	require.NoError(t, err)

	var got []doc
	require.NoError(t, db.Query(ctx, "things", "owner", "a", &got))
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Name)
	assert.Equal(t, "two", got[1].Name)
	assert.Equal(t, "three", got[2].Name)
}

func TestAppendToArrayIsIdempotentForIdenticalValues(t *testing.T) {
	db := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, "things", "t1", map[string]any{"name": "first"}))

	require.NoError(t, db.AppendToArray(ctx, "things", "t1", "tags", "blue"))
	require.NoError(t, db.AppendToArray(ctx, "things", "t1", "tags", "blue"))
	require.NoError(t, db.AppendToArray(ctx, "things", "t1", "tags", "red"))

	var got doc
	require.NoError(t, db.Get(ctx, "things", "t1", &got))
	assert.Equal(t, []string{"blue", "red"}, got.Tags)
}

func TestDeleteMissingDocumentIsNotAnError(t *testing.T) {
	db := storage.NewMemory()
	assert.NoError(t, db.Delete(context.Background(), "things", "nope"))
}

func TestInterceptInjectsFailures(t *testing.T) {
	db := storage.NewMemory()
	boom := errors.New("boom")
	db.Intercept = func(op, collection, id string) error {
		if op == "set" {
			return boom
		}
		return nil
	}
	err := db.Set(context.Background(), "things", "t1", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, boom)
}
