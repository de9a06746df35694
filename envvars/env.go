package envvars

import (
	"log"
	"os"
)

const (
	GCPProjectID   = "GCP_PROJECT_ID"
	FirebaseAPIKey = "FIREBASE_API_KEY"
	TMDBApiKey     = "TMDB_API_KEY"
	TMDBLanguage   = "TMDB_LANGUAGE"
	Environment    = "ENVIRONMENT"
)

const (
	DevEnv        = "dev"
	ProductionEnv = "production"
)

type Env struct {
	ProjectID      string
	FirebaseAPIKey string
	TMDBApiKey     string
	TMDBLanguage   string
	Environment    string
}

func GetEvn() Env {
	projectID, ok := os.LookupEnv(GCPProjectID)
	if !ok {
		log.Fatalf("%s required", GCPProjectID)
	}
	firebaseKey, ok := os.LookupEnv(FirebaseAPIKey)
	if !ok {
		log.Fatalf("%s required", FirebaseAPIKey)
	}
	// TMDB is optional; metadata search is disabled without it.
	tmdbKey := os.Getenv(TMDBApiKey)
	language := os.Getenv(TMDBLanguage)
	environment, ok := os.LookupEnv(Environment)
	if !ok {
		environment = DevEnv
	}
	return Env{
		ProjectID:      projectID,
		FirebaseAPIKey: firebaseKey,
		TMDBApiKey:     tmdbKey,
		TMDBLanguage:   language,
		Environment:    environment,
	}
}

func IsProd(e Env) bool {
	return e.Environment == ProductionEnv
}

func IsDev(e Env) bool {
	return e.Environment == DevEnv
}
