package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mzhuravlev/fittrack/internal/hash"
	authmw "github.com/mzhuravlev/fittrack/internal/middleware/auth"
	"github.com/mzhuravlev/fittrack/internal/models"
	"github.com/mzhuravlev/fittrack/internal/mykafka"
	"github.com/mzhuravlev/fittrack/internal/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

// The access token travels in the response body only; the cookie exists
// for Refresh, which accepts the token from it.
func (h *AuthHandler) setRefreshCookie(c echo.Context, pair *token.Pair) {
	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", pair.RefreshExpiresAt))
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: pwHash,
		Role:         "member",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pair, err := h.Tokens.IssuePair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	h.setRefreshCookie(c, pair)

	publish(c, h.Producer, "user_events", user.Username, map[string]any{
		"type":     "user_registered",
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Same message for unknown user and wrong password, so usernames
	// cannot be probed through the login endpoint.
	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	pair, err := h.Tokens.IssuePair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	h.setRefreshCookie(c, pair)

	publish(c, h.Producer, "user_events", user.Username, map[string]any{
		"type":     "user_logged_in",
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	raw := req.RefreshToken
	if raw == "" {
		if ck, err := c.Cookie("refreshToken"); err == nil {
			raw = ck.Value
		}
	}
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, user, err := h.Tokens.Redeem(raw)
	switch {
	case errors.Is(err, token.ErrExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, token.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	h.setRefreshCookie(c, pair)

	publish(c, h.Producer, "user_events", user.Username, map[string]any{
		"type":     "token_refreshed",
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Logout clears the caller's session. Logging out twice is fine.
func (h *AuthHandler) Logout(c echo.Context) error {
	actor := authmw.Actor(c)

	if err := h.Tokens.Revoke(actor.Username); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me exposes the claims surface consumed by the frontend.
func (h *AuthHandler) Me(c echo.Context) error {
	actor := authmw.Actor(c)
	displayName, _ := c.Get("displayName").(string)

	return c.JSON(http.StatusOK, echo.Map{
		"username":     actor.Username,
		"display_name": displayName,
		"role":         actor.Role.String(),
	})
}
