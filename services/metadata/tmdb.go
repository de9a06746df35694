package metadata

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"mediatrack/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w500"
)

// Service searches TMDB to prefill a draft's title, description and image
// before creation. Nothing from here is persisted directly.
type Service interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Result is one TMDB search hit.
type Result struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterURL   string `json:"posterUrl"`
	ReleaseDate string `json:"releaseDate"`
}

// Prefill maps a search hit onto a draft for the add-media form.
func (r Result) Prefill() models.Draft {
	return models.Draft{
		Title:       r.Title,
		Description: r.Overview,
		ImageURL:    r.PosterURL,
		Kind:        models.KindMovie,
	}
}

type service struct {
	http     *resty.Client
	apiKey   string
	language string
}

var _ Service = (*service)(nil)

// NewService wraps the resty client. A client with a base URL already set is
// left alone, which is how tests point it at a local server.
func NewService(client *resty.Client, apiKey, language string) Service {
	if client.BaseURL == "" {
		client.SetBaseURL(tmdbBaseURL)
	}
	if language == "" {
		language = "en-US"
	}
	return &service{
		http:     client,
		apiKey:   apiKey,
		language: language,
	}
}

type searchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		MediaType    string `json:"media_type"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		Overview     string `json:"overview"`
		PosterPath   string `json:"poster_path"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

func (s *service) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "required"}
	}
	body := &searchResponse{}
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  s.apiKey,
			"language": s.language,
			"query":    query,
		}).
		SetResult(body).
		Get("/search/multi")
	if err != nil {
		log.Error().Err(err).Msg("tmdb search failed")
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tmdb search failed: %s", resp.Status())
	}

	results := make([]Result, 0, len(body.Results))
	for _, hit := range body.Results {
		if hit.MediaType == "person" {
			continue
		}
		title := hit.Title
		if title == "" {
			title = hit.Name
		}
		release := hit.ReleaseDate
		if release == "" {
			release = hit.FirstAirDate
		}
		results = append(results, Result{
			ID:          hit.ID,
			Title:       title,
			Overview:    hit.Overview,
			PosterURL:   posterURL(hit.PosterPath),
			ReleaseDate: release,
		})
	}
	return results, nil
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", tmdbImageBaseURL, tmdbPosterSize, path)
}
