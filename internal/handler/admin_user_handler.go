package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// /admin/users と監査ログ
type AdminUserHandler struct {
	uc    *usecase.AuthUsecase
	audit repository.AuditLogRepository
}

func NewAdminUserHandler(uc *usecase.AuthUsecase, audit repository.AuditLogRepository) *AdminUserHandler {
	return &AdminUserHandler{uc: uc, audit: audit}
}

func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/audit-logs", h.AuditLogs)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// 監査ログの絞り込み（action, resource_type, resource_id, actor_user_id, from, to）
func (h *AdminUserHandler) AuditLogs(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 50)
	if !ok || limit < 1 || limit > 200 {
		return badRequest(c, "invalid limit")
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok || offset < 0 {
		return badRequest(c, "invalid offset")
	}

	q := repository.AuditLogQuery{
		Action:       model.AuditAction(c.QueryParam("action")),
		ResourceType: model.AuditResourceType(c.QueryParam("resource_type")),
		Limit:        limit,
		Offset:       offset,
	}
	for _, p := range []struct {
		name string
		dst  *int64
	}{{"resource_id", &q.ResourceID}, {"actor_user_id", &q.ActorUserID}} {
		if v := c.QueryParam(p.name); v != "" {
			id, ok := parseInt64(v)
			if !ok {
				return badRequest(c, "invalid "+p.name)
			}
			*p.dst = id
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		if v := c.QueryParam(p.name); v != "" {
			t, ok := usecase.ParseDateTimeRFC3339(v)
			if !ok {
				return badRequest(c, "invalid "+p.name)
			}
			*p.dst = t
		}
	}

	logs, total, err := h.audit.List(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return c.JSON(http.StatusOK, AuditLogListResponse{Items: logs, Total: total, Limit: limit, Offset: offset})
}

type AuditLogListResponse struct {
	Items  []model.AuditLog `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}
