package media

import (
	"strings"

	"mediatrack/models"
)

// Criteria narrows a projection for display. Zero values mean "no bound":
// empty Search matches everything, empty Status matches any status and
// MinRating 0 keeps unrated records.
type Criteria struct {
	Search    string
	Status    models.Status
	MinRating int
}

// Filter returns the ordered subsequence of records satisfying all criteria,
// preserving load order. Pure and O(n); no I/O.
func Filter(records []models.MediaRecord, c Criteria) []models.MediaRecord {
	search := strings.ToLower(c.Search)
	out := make([]models.MediaRecord, 0, len(records))
	for _, r := range records {
		if search != "" && !strings.Contains(strings.ToLower(r.Title), search) {
			continue
		}
		if c.Status != "" && r.Status != c.Status {
			continue
		}
		if c.MinRating > 0 && (r.Rating == nil || *r.Rating < c.MinRating) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterCache wraps Filter with a one-entry memo. Call sites re-evaluate on
// every keystroke, so back-to-back identical inputs are the common case.
type FilterCache struct {
	input    []models.MediaRecord
	criteria Criteria
	result   []models.MediaRecord
	valid    bool
}

func (f *FilterCache) Apply(records []models.MediaRecord, c Criteria) []models.MediaRecord {
	if f.valid && c == f.criteria && sameSlice(records, f.input) {
		return f.result
	}
	f.input = records
	f.criteria = c
	f.result = Filter(records, c)
	f.valid = true
	return f.result
}

// sameSlice reports whether both slices share the same backing array and
// length, i.e. the caller passed the identical input again.
func sameSlice(a, b []models.MediaRecord) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
