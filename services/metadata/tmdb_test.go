package metadata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrack/models"
	"mediatrack/services/metadata"
)

func newService(t *testing.T, handler http.HandlerFunc) metadata.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := resty.New().SetBaseURL(server.URL)
	return metadata.NewService(client, "tmdb-key", "en-US")
}

func TestSearchMapsResults(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/multi", r.URL.Path)
		require.Equal(t, "tmdb-key", r.URL.Query().Get("api_key"))
		require.Equal(t, "en-US", r.URL.Query().Get("language"))
		require.Equal(t, "dune", r.URL.Query().Get("query"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id": 438631, "media_type": "movie", "title": "Dune",
					"overview": "Paul Atreides...", "poster_path": "/dune.jpg",
					"release_date": "2021-09-15",
				},
				{
					"id": 94997, "media_type": "tv", "name": "House of the Dragon",
					"overview": "The Targaryens...", "first_air_date": "2022-08-21",
				},
				{"id": 1, "media_type": "person", "name": "Denis Villeneuve"},
			},
		})
	})

	results, err := svc.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 2, "people are dropped")

	assert.Equal(t, "Dune", results[0].Title)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/dune.jpg", results[0].PosterURL)
	assert.Equal(t, "2021-09-15", results[0].ReleaseDate)

	assert.Equal(t, "House of the Dragon", results[1].Title, "tv hits use the name field")
	assert.Equal(t, "2022-08-21", results[1].ReleaseDate)
	assert.Empty(t, results[1].PosterURL, "no poster path, no url")
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := svc.Search(context.Background(), "")
	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestSearchSurfacesServerErrors(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := svc.Search(context.Background(), "dune")
	require.Error(t, err)
}

func TestPrefillBuildsDraft(t *testing.T) {
	result := metadata.Result{
		Title:     "Dune",
		Overview:  "Paul Atreides...",
		PosterURL: "https://image.tmdb.org/t/p/w500/dune.jpg",
	}
	draft := result.Prefill()
	assert.Equal(t, "Dune", draft.Title)
	assert.Equal(t, "Paul Atreides...", draft.Description)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/dune.jpg", draft.ImageURL)
	assert.Equal(t, models.KindMovie, draft.Kind)
	assert.NoError(t, draft.Validate())
}
