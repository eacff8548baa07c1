package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prasetyo-adi/go-todo-api/internal/application"
	"github.com/prasetyo-adi/go-todo-api/internal/domain/entity"
	"github.com/prasetyo-adi/go-todo-api/internal/interface/middleware"
	"github.com/prasetyo-adi/go-todo-api/pkg/helpers"
	"github.com/prasetyo-adi/go-todo-api/pkg/response"
	"github.com/prasetyo-adi/go-todo-api/pkg/validation"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name" binding:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"max=120"`
}

func userPayload(u *entity.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func tokenMeta(pair application.TokenPair) gin.H {
	return gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, application.ErrDuplicateEmail) {
			response.Error[any](c, http.StatusBadRequest, "email already registered", nil)
			return
		}
		h.fail(c, err, "register failed")
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, gin.H{
		"user":          userPayload(u),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "registered", tokenMeta(pair))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password share this branch and body.
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":          userPayload(u),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "login successful", tokenMeta(pair))
}

// Refresh accepts the refresh token from the cookie or the body, so both
// browser and API clients can rotate.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie("refresh_token")
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	_, pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "token refreshed", tokenMeta(pair))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	h.Svc.Logout(c.Request.Context(), uid)
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "get profile failed")
		return
	}
	response.Success(c, http.StatusOK, userPayload(u), "profile", nil)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{Name: req.Name})
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "update profile failed")
		return
	}
	response.Success(c, http.StatusOK, userPayload(u), "profile updated", nil)
}

func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusBadRequest, "avatar too large", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, err, "avatar open failed")
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "avatar upload failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}

// fail logs the cause and renders an opaque 500. Internal error text is
// never sent to clients.
func (h *AuthHandler) fail(c *gin.Context, err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(msg)
	}
	response.Error[any](c, http.StatusInternalServerError, "unexpected error", nil)
}
