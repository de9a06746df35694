package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindGame  MediaKind = "game"
	KindBook  MediaKind = "book"
)

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusWatching  Status = "watching"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusWatching, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// MediaRecord is one tracked item in a user's collection. ID is assigned by
// the document store on creation and OwnerID is set once; neither is ever
// mutated afterwards.
type MediaRecord struct {
	ID          string    `json:"id" firestore:"id"`
	OwnerID     string    `json:"ownerId" firestore:"ownerId"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
	ImageURL    string    `json:"imageUrl" firestore:"imageUrl"`
	Kind        MediaKind `json:"kind" firestore:"kind"`
	Tags        []string  `json:"tags,omitempty" firestore:"tags"`
	Rating      *int      `json:"rating,omitempty" firestore:"rating"`
	Status      Status    `json:"status" firestore:"status"`
	WatchedDate string    `json:"watchedDate,omitempty" firestore:"watchedDate"`
	Favorite    bool      `json:"favorite" firestore:"favorite"`
	Comments    []Comment `json:"comments,omitempty" firestore:"comments"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// Comment is one entry in a record's append-only note list. The ID is
// generated client-side so a positional edit can be resolved against a fresh
// snapshot by identity rather than by index alone.
type Comment struct {
	ID        string    `json:"id" firestore:"id"`
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// UserProfile mirrors the authenticated identity into the users collection.
type UserProfile struct {
	UID         string `json:"uid" firestore:"uid"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"displayName" firestore:"displayName"`
}

// Draft holds the user-supplied fields for a new MediaRecord. Status and
// CreatedAt are assigned at creation time, never taken from the draft.
type Draft struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	ImageURL    string    `json:"imageUrl" validate:"required"`
	Kind        MediaKind `json:"kind" validate:"required,oneof=movie game book"`
	Tags        []string  `json:"tags"`
	Rating      *int      `json:"rating" validate:"omitempty,min=0,max=10"`
	WatchedDate string    `json:"watchedDate"`
	Favorite    bool      `json:"favorite"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the draft before any remote call is made.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &ValidationError{Field: first.Field(), Reason: first.Tag()}
	}
	return &ValidationError{Field: "draft", Reason: err.Error()}
}
