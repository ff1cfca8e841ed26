package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/infra/media"
	"storefront/internal/usecase"
)

type MediaHandler struct {
	uc *usecase.MediaUsecase
}

func NewMediaHandler(uc *usecase.MediaUsecase) *MediaHandler {
	return &MediaHandler{uc: uc}
}

func (h *MediaHandler) RegisterRoutes(e *echo.Echo, requireUser echo.MiddlewareFunc, limit echo.MiddlewareFunc, admin *echo.Group) {
	e.GET(media.PreviewPathPrefix+":id", h.preview)
	e.POST("/media/review-images", h.uploadReviewImage, limit, requireUser)
	admin.POST("/media", h.upload)
}

func (h *MediaHandler) upload(c echo.Context) error {
	f, err := readUpload(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.uc.Upload(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *MediaHandler) uploadReviewImage(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	f, err := readUpload(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.uc.UploadReviewImage(c.Request().Context(), userID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// multipartのfile。Content-Typeが無ければ中身から判定
func readUpload(c echo.Context) (media.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return media.File{}, errFileRequired
	}
	src, err := fh.Open()
	if err != nil {
		return media.File{}, errFileRequired
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return media.File{}, errors.New("could not read file")
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return media.File{Name: fh.Filename, ContentType: ct, Data: data}, nil
}

var errFileRequired = errors.New("file required")

func (h *MediaHandler) preview(c echo.Context) error {
	f, err := h.uc.Preview(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Blob(http.StatusOK, f.ContentType, f.Data)
}
