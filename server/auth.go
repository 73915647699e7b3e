package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/log"
)

const (
	bearerPrefix = "Bearer "

	// gin context key holding the authenticated username
	contextUserKey = "auth.username"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req catalog.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.BadRequest("invalid login payload"))
		return
	}

	var user User
	err := s.store.db.Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		fail(c, errors.Unauthorized("invalid credentials"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		fail(c, errors.Unauthorized("invalid credentials"))
		return
	}

	resp, err := s.issueTokenPair(&user)
	if err != nil {
		fail(c, err)
		return
	}

	log.Info().Str("username", user.Username).Msg("login succeeded")
	c.JSON(200, resp)
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.BadRequest("refresh token required"))
		return
	}

	var stored RefreshToken
	err := s.store.db.Where("token_hash = ?", HashRefresh(req.RefreshToken)).First(&stored).Error
	if err != nil {
		fail(c, errors.Unauthorized("invalid refresh token"))
		return
	}

	if stored.RevokedAt != nil || time.Now().After(stored.ExpiresAt) {
		fail(c, errors.Unauthorized("refresh token expired or revoked"))
		return
	}

	var user User
	if err := s.store.db.First(&user, stored.UserID).Error; err != nil {
		fail(c, errors.Unauthorized("invalid refresh token"))
		return
	}

	// Rotation: the presented token is single-use
	now := time.Now()
	if err := s.store.db.Model(&stored).Update("revoked_at", &now).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "revoke refresh token"))
		return
	}

	resp, err := s.issueTokenPair(&user)
	if err != nil {
		fail(c, err)
		return
	}

	log.Debug().Str("username", user.Username).Msg("token pair refreshed")
	c.JSON(200, resp)
}

func (s *Server) handleLogout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		now := time.Now()
		s.store.db.Model(&RefreshToken{}).
			Where("token_hash = ?", HashRefresh(req.RefreshToken)).
			Update("revoked_at", &now)
	}
	c.Status(204)
}

func (s *Server) issueTokenPair(user *User) (*catalog.LoginResponse, error) {
	access, err := s.tokens.IssueAccess(user.Username)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefresh()
	if err != nil {
		return nil, err
	}

	record := RefreshToken{
		UserID:    user.ID,
		TokenHash: HashRefresh(refresh),
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
		CreatedAt: time.Now(),
	}
	if err := s.store.db.Create(&record).Error; err != nil {
		return nil, errors.Wrap(err, 500, "persist refresh token")
	}

	return &catalog.LoginResponse{
		TokenType:    "Bearer",
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// requireAuth rejects requests without a valid bearer token and stores the
// authenticated username on the context
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			fail(c, errors.Unauthorized("missing bearer token"))
			return
		}

		username, err := s.tokens.VerifyAccess(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			fail(c, err)
			return
		}

		c.Set(contextUserKey, username)
		c.Next()
	}
}
