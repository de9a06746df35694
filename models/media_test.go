package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrack/models"
	"mediatrack/utils"
)

func validDraft() models.Draft {
	return models.Draft{
		Title:       "Dune",
		Description: "Paul Atreides...",
		ImageURL:    "https://example.com/dune.jpg",
		Kind:        models.KindMovie,
	}
}

func TestDraftValidate(t *testing.T) {
	require.NoError(t, validDraft().Validate())

	tests := []struct {
		name   string
		mutate func(*models.Draft)
		field  string
	}{
		{"missing title", func(d *models.Draft) { d.Title = "" }, "Title"},
		{"missing description", func(d *models.Draft) { d.Description = "" }, "Description"},
		{"missing image", func(d *models.Draft) { d.ImageURL = "" }, "ImageURL"},
		{"missing kind", func(d *models.Draft) { d.Kind = "" }, "Kind"},
		{"unknown kind", func(d *models.Draft) { d.Kind = "podcast" }, "Kind"},
		{"rating too high", func(d *models.Draft) { d.Rating = utils.ToPointer(11) }, "Rating"},
		{"rating negative", func(d *models.Draft) { d.Rating = utils.ToPointer(-1) }, "Rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()
			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestDraftValidateRatingBounds(t *testing.T) {
	for _, rating := range []int{0, 5, 10} {
		d := validDraft()
		d.Rating = utils.ToPointer(rating)
		assert.NoError(t, d.Validate())
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []models.Status{
		models.StatusPlanned, models.StatusWatching, models.StatusCompleted, models.StatusDropped,
	} {
		assert.True(t, s.Valid())
	}
	assert.False(t, models.Status("paused").Valid())
	assert.False(t, models.Status("").Valid())
}
