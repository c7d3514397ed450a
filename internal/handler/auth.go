package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"errors"       // sentinel error comparisons
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/event-booking/internal/config"     // app configuration
	"github.com/iliyamo/event-booking/internal/model"      // domain models
	"github.com/iliyamo/event-booking/internal/repository" // DB repositories
	"github.com/iliyamo/event-booking/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // user | admin
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Register creates a user and returns an access token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name, email and password are required"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin && role != model.RoleUser {
		role = model.RoleUser
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		User:    userPart{ID: uid, Name: req.Name, Email: req.Email, Role: role},
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}
