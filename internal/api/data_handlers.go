package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/cache"
	"github.com/InstaIntelli/insta/internal/database"
	"github.com/InstaIntelli/insta/internal/failover"
	"github.com/InstaIntelli/insta/internal/logging"
)

const (
	defaultPostsLimit = 50
	maxPostsLimit     = 100
)

// UserReader loads users from the relational backend
type UserReader interface {
	GetUser(ctx context.Context, userID string) (*database.User, error)
}

// PostReader loads posts from the document backend
type PostReader interface {
	GetPost(ctx context.Context, postID string) (*database.Post, error)
	ListUserPosts(ctx context.Context, userID string, limit int64) ([]database.Post, error)
}

// userProfile is the public view of a user
type userProfile struct {
	UserID          string     `json:"user_id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FullName        string     `json:"full_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsVerified      bool       `json:"is_verified"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func newUserProfile(u *database.User) userProfile {
	return userProfile{
		UserID:          u.UserID,
		Email:           u.Email,
		Username:        u.Username,
		FullName:        u.FullName,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		IsActive:        u.IsActive,
		IsVerified:      u.IsVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var profile userProfile
	err := s.readThrough(r.Context(), cache.UserKey(userID), &profile, func() error {
		u, err := s.users.GetUser(r.Context(), userID)
		if err != nil {
			return err
		}
		profile = newUserProfile(u)
		return nil
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	var post database.Post
	err := s.readThrough(r.Context(), cache.PostKey(postID), &post, func() error {
		p, err := s.posts.GetPost(r.Context(), postID)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleListUserPosts is served from the document store directly; the
// list changes with every new post
func (s *Server) handleListUserPosts(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultPostsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPostsLimit)
	}

	posts, err := s.posts.ListUserPosts(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if posts == nil {
		posts = []database.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
		"count": len(posts),
	})
}

// readThrough fills dest from the cache, or runs load and caches dest.
// Cache failures never fail the request; the cache logs and counts them.
func (s *Server) readThrough(ctx context.Context, key string, dest any, load func() error) error {
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, dest); err == nil {
			return nil
		}
	}
	if err := load(); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, dest, 0)
	}
	return nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound), errors.Is(err, database.ErrPostNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, failover.ErrBackendUnavailable), errors.Is(err, failover.ErrClosed):
		logging.FromContext(r.Context(), s.logger).Warn("backend unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "backend unavailable")
	default:
		logging.FromContext(r.Context(), s.logger).Error("store request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
