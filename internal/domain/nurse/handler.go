package nurse

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careward/careward/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes splits routes across the public group (signup, login) and
// the authenticated group (profile, status changes).
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/nurses/signup", h.Signup)
	public.POST("/nurses/login", h.Login)

	api.GET("/nurses/me", h.Profile)
	api.PATCH("/nurses/:id/status", h.UpdateStatus)
}

type signupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	n := &Nurse{
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
	}
	if err := h.svc.Signup(c.Request().Context(), n, req.Password); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, n)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	n, token, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, auth.ErrInactiveIdentity):
			return echo.NewHTTPError(http.StatusForbidden, "account is inactive")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"nurse": n,
	})
}

func (h *Handler) Profile(c echo.Context) error {
	identity := auth.NurseFromContext(c)
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	n, err := h.svc.Profile(c.Request().Context(), identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
