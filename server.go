package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mediatrack/clients/storage"
	"mediatrack/models"
	"mediatrack/services/account"
	"mediatrack/services/identity"
	"mediatrack/services/media"
	"mediatrack/services/metadata"
	"mediatrack/services/session"
	"mediatrack/validator"
)

type Server struct {
	Sessions *session.Registry
	Accounts account.Service
	Metadata metadata.Service
}

func NewServer(sessions *session.Registry, accounts account.Service, meta metadata.Service) *Server {
	return &Server{
		Sessions: sessions,
		Accounts: accounts,
		Metadata: meta,
	}
}

func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.POST("/auth/sync", s.SyncProfile)
	r.POST("/auth/signout", s.SignOut)

	r.GET("/media", s.ListMedia)
	r.POST("/media", s.CreateMedia)
	r.PATCH("/media/:id", s.UpdateMediaField)
	r.DELETE("/media/:id", s.DeleteMedia)

	r.POST("/media/:id/comments", s.AddComment)
	r.PUT("/media/:id/comments/:index", s.EditComment)
	r.DELETE("/media/:id/comments/:index", s.DeleteComment)

	r.GET("/metadata/search", s.SearchMetadata)

	r.GET("/profile", s.GetProfile)
	r.PUT("/profile/displayName", s.UpdateDisplayName)
	r.PUT("/profile/password", s.ChangePassword)
	r.GET("/profile/providers", s.ListProviders)
	r.POST("/profile/providers", s.LinkProvider)
	r.DELETE("/profile/providers/:providerId", s.UnlinkProvider)

	r.DELETE("/account", s.DeleteAccount)
}

func sessionFrom(c *gin.Context) (identity.Session, bool) {
	principal, ok := validator.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return identity.Session{}, false
	}
	return identity.Session{
		UID:     principal.UID,
		Email:   principal.Email,
		IDToken: principal.IDToken,
	}, true
}

func (s *Server) engine(c *gin.Context) (media.Service, identity.Session, bool) {
	sess, ok := sessionFrom(c)
	if !ok {
		return nil, sess, false
	}
	engine, err := s.Sessions.For(c.Request.Context(), sess.UID)
	if err != nil {
		writeError(c, err)
		return nil, sess, false
	}
	return engine, sess, true
}

func writeError(c *gin.Context, err error) {
	var cascade *models.CascadeError
	if errors.As(err, &cascade) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   cascade.Error(),
			"step":    cascade.Step,
			"deleted": cascade.Deleted,
			"total":   cascade.Total,
		})
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var validation *models.ValidationError
	var index *models.IndexError
	var concurrent *models.ConcurrentMutationError
	switch {
	case errors.As(err, &validation), errors.As(err, &index):
		return http.StatusBadRequest
	case errors.As(err, &concurrent):
		return http.StatusConflict
	case errors.Is(err, models.ErrReauthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, storage.NotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) SyncProfile(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var body struct {
		DisplayName string `json:"displayName"`
	}
	_ = c.ShouldBindJSON(&body)
	sess.DisplayName = body.DisplayName
	if err := s.Accounts.SyncProfile(c.Request.Context(), sess); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) SignOut(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	s.Sessions.Drop(sess.UID)
	c.Status(http.StatusNoContent)
}

func (s *Server) ListMedia(c *gin.Context) {
	engine, _, ok := s.engine(c)
	if !ok {
		return
	}
	criteria := media.Criteria{
		Search: c.Query("search"),
		Status: models.Status(c.Query("status")),
	}
	if raw := c.Query("minRating"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, &models.ValidationError{Field: "minRating", Reason: "must be an integer"})
			return
		}
		criteria.MinRating = min
	}
	c.JSON(http.StatusOK, media.Filter(engine.Records(), criteria))
}

func (s *Server) CreateMedia(c *gin.Context) {
	engine, sess, ok := s.engine(c)
	if !ok {
		return
	}
	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		writeError(c, &models.ValidationError{Field: "draft", Reason: "malformed body"})
		return
	}
	record, err := engine.Create(c.Request.Context(), sess.UID, draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) UpdateMediaField(c *gin.Context) {
	engine, _, ok := s.engine(c)
	if !ok {
		return
	}
	var body struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, &models.ValidationError{Field: "body", Reason: "malformed body"})
		return
	}
	if err := engine.UpdateField(c.Request.Context(), c.Param("id"), body.Field, body.Value); err != nil {
		writeError(c, err)
		return
	}
	record, _ := engine.Get(c.Param("id"))
	c.JSON(http.StatusOK, record)
}

func (s *Server) DeleteMedia(c *gin.Context) {
	engine, _, ok := s.engine(c)
	if !ok {
		return
	}
	if err := engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) AddComment(c *gin.Context) {
	engine, _, ok := s.engine(c)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, &models.ValidationError{Field: "text", Reason: "malformed body"})
		return
	}
	comment, err := engine.AddComment(c.Request.Context(), c.Param("id"), body.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func commentIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, &models.ValidationError{Field: "index", Reason: "must be an integer"})
		return 0, false
	}
	return index, true
}

func (s *Server) EditComment(c *gin.Context) {
	engine, _, ok := s.engine(c)
	if !ok {
		return
	}
	index, ok := commentIndex(c)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, &models.ValidationError{Field: "text", Reason: "malformed body"})
		return
	}
	if err := engine.EditCommentAt(c.Request.Context(), c.Param("id"), index, body.Text); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteComment(c *gin.Context) {
	engine, _, ok := s.engine(c)
	if !ok {
		return
	}
	index, ok := commentIndex(c)
	if !ok {
		return
	}
	if err := engine.DeleteCommentAt(c.Request.Context(), c.Param("id"), index); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) SearchMetadata(c *gin.Context) {
	if _, ok := sessionFrom(c); !ok {
		return
	}
	results, err := s.Metadata.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) GetProfile(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	profile, err := s.Accounts.Profile(c.Request.Context(), sess.UID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpdateDisplayName(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var body struct {
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.DisplayName == "" {
		writeError(c, &models.ValidationError{Field: "displayName", Reason: "required"})
		return
	}
	if err := s.Accounts.UpdateDisplayName(c.Request.Context(), sess, body.DisplayName); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ChangePassword(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, &models.ValidationError{Field: "body", Reason: "malformed body"})
		return
	}
	token, err := s.Accounts.ChangePassword(c.Request.Context(), sess, body.CurrentPassword, body.NewPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"idToken": token})
}

func (s *Server) ListProviders(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	providers, err := s.Accounts.LinkedProviders(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, providers)
}

func (s *Server) LinkProvider(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var body struct {
		ProviderID string `json:"providerId"`
		Token      string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ProviderID == "" {
		writeError(c, &models.ValidationError{Field: "providerId", Reason: "required"})
		return
	}
	if err := s.Accounts.LinkProvider(c.Request.Context(), sess, body.ProviderID, body.Token); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) UnlinkProvider(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	if err := s.Accounts.UnlinkProvider(c.Request.Context(), sess, c.Param("providerId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteAccount(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	if err := s.Accounts.DeleteAccount(c.Request.Context(), sess); err != nil {
		writeError(c, err)
		return
	}
	s.Sessions.Drop(sess.UID)
	c.Status(http.StatusNoContent)
}
