package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"

	"mediatrack/clients/gcp"
	"mediatrack/clients/storage"
	"mediatrack/envvars"
	"mediatrack/services/account"
	"mediatrack/services/identity"
	"mediatrack/services/metadata"
	"mediatrack/services/session"
	"mediatrack/validator"
)

func main() {
	env := envvars.GetEvn()
	ctx := context.Background()

	firestore := gcp.CreateFirestore(ctx, env.ProjectID)
	defer firestore.Close()

	db := storage.NewFirestore(firestore)
	provider := identity.NewFirebaseProvider(resty.New(), env.FirebaseAPIKey)
	accounts := account.NewService(db, provider)
	tmdb := metadata.NewService(resty.New(), env.TMDBApiKey, env.TMDBLanguage)
	sessions := session.NewRegistry(db)
	server := NewServer(sessions, accounts, tmdb)

	if envvars.IsProd(env) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ping": "pong"})
	})

	authed := r.Group("/", validator.Middleware())
	server.RegisterRoutes(authed)

	s := &http.Server{
		Handler: r,
		Addr:    "0.0.0.0:8080",
	}

	slog.Info("Starting HTTP server on port 8080")
	log.Fatal(s.ListenAndServe())
}
