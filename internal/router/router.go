package router

import (
	"context"
	"net/http"

	"github.com/curately/curately/internal/apperr"
	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/internal/feed"
	"github.com/curately/curately/internal/store"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// userHeader carries the identity resolved by the auth proxy in front of
// this service.
const userHeader = "X-User-ID"

// FeedService resolves one personalized feed request.
type FeedService interface {
	PersonalizedNews(ctx context.Context, userID string) (feed.Result, error)
}

// PreferenceParser turns free text into a structured profile (AI with
// heuristic fallback; never fails).
type PreferenceParser interface {
	ParsePreferences(ctx context.Context, raw string) domain.PreferenceProfile
}

// UserStore is the persistence surface the routes need.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (store.User, error)
	GetPreferences(ctx context.Context, userID string) (domain.PreferenceProfile, error)
	UpdatePreferences(ctx context.Context, userID string, profile domain.PreferenceProfile) error
	ListSaved(ctx context.Context, userID string) ([]store.SavedArticle, error)
	SaveArticle(ctx context.Context, userID string, article domain.EnrichedArticle) (store.SavedArticle, error)
	DeleteSaved(ctx context.Context, userID string, id uuid.UUID) error
}

// CacheInvalidator drops a user's cached feed after a preference change.
type CacheInvalidator interface {
	Invalidate(userID string)
}

type Router struct {
	e      *echo.Echo
	feed   FeedService
	store  UserStore
	parser PreferenceParser
	cache  CacheInvalidator
}

func New(e *echo.Echo, feedSvc FeedService, userStore UserStore, parser PreferenceParser, cache CacheInvalidator) *Router {
	return &Router{
		e:      e,
		feed:   feedSvc,
		store:  userStore,
		parser: parser,
		cache:  cache,
	}
}

func (r *Router) Bind() {
	api := r.e.Group("/api")
	api.GET("/news", r.newsHandler)
	api.GET("/preferences", r.getPreferencesHandler)
	api.POST("/preferences", r.updatePreferencesHandler)
	api.GET("/saved", r.listSavedHandler)
	api.POST("/saved", r.saveArticleHandler)
	api.DELETE("/saved/:id", r.deleteSavedHandler)
	api.GET("/auth/profile", r.profileHandler)
}

func userID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(userHeader)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}

type newsResponse struct {
	Count     int                      `json:"count"`
	Articles  []domain.EnrichedArticle `json:"articles"`
	FromCache bool                     `json:"fromCache"`
}

func (r *Router) newsHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	result, err := r.feed.PersonalizedNews(c.Request().Context(), uid)
	if err != nil {
		return err
	}

	switch result.Status {
	case feed.StatusRateLimited:
		body := map[string]any{"error": result.Message}
		if result.RetryAfter > 0 {
			body["retryAfter"] = int(result.RetryAfter.Seconds())
		}
		return c.JSON(http.StatusTooManyRequests, body)
	case feed.StatusEmpty:
		return c.JSON(http.StatusOK, map[string]any{
			"message":  result.Message,
			"articles": []domain.EnrichedArticle{},
		})
	default:
		return c.JSON(http.StatusOK, newsResponse{
			Count:     len(result.Articles),
			Articles:  result.Articles,
			FromCache: result.FromCache,
		})
	}
}

func (r *Router) getPreferencesHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	profile, err := r.store.GetPreferences(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

type updatePreferencesRequest struct {
	PreferenceText string `json:"preferenceText"`
}

func (r *Router) updatePreferencesHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req updatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if req.PreferenceText == "" {
		return apperr.NewValidation("preferenceText is required")
	}

	profile := r.parser.ParsePreferences(c.Request().Context(), req.PreferenceText)
	if err := r.store.UpdatePreferences(c.Request().Context(), uid, profile); err != nil {
		return err
	}

	// The cached feed was ranked against the old profile.
	r.cache.Invalidate(uid)

	return c.JSON(http.StatusOK, profile)
}

func (r *Router) listSavedHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	saved, err := r.store.ListSaved(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	if saved == nil {
		saved = []store.SavedArticle{}
	}
	return c.JSON(http.StatusOK, saved)
}

type saveArticleRequest struct {
	Article domain.EnrichedArticle `json:"article_data"`
}

func (r *Router) saveArticleHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req saveArticleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid request body", err)
	}
	if !req.Article.Valid() {
		return apperr.NewValidation("article_data must include title and url")
	}

	saved, err := r.store.SaveArticle(c.Request().Context(), uid, req.Article)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, saved)
}

func (r *Router) deleteSavedHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NewValidation("invalid article id")
	}

	if err := r.store.DeleteSaved(c.Request().Context(), uid, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *Router) profileHandler(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	user, err := r.store.GetUser(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
