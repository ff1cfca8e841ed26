package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/usecase"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

type AnnouncementRequest struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo, requireUser echo.MiddlewareFunc, admin *echo.Group) {
	g := e.Group("/notifications", requireUser)
	g.GET("", h.list)
	g.DELETE("", h.deleteAll)
	g.POST("/read-all", h.markAllRead)
	g.POST("/:id/read", h.markRead)

	admin.POST("/announcements", h.createAnnouncement)
	admin.DELETE("/announcements", h.deleteAnnouncements)
}

func (h *NotificationHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.MarkRead(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "read"})
}

func (h *NotificationHandler) markAllRead(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.MarkAllRead(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "read"})
}

func (h *NotificationHandler) deleteAll(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.DeleteAll(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *NotificationHandler) createAnnouncement(c echo.Context) error {
	var req AnnouncementRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.CreateAnnouncement(c.Request().Context(), usecase.AnnouncementInput{
		Message: req.Message,
		Link:    req.Link,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *NotificationHandler) deleteAnnouncements(c echo.Context) error {
	if err := h.uc.DeleteAllAnnouncements(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
