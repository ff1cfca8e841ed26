package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/infra/media"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

type hostStub struct{ got []media.File }

func (h *hostStub) Upload(_ context.Context, f media.File) (media.Result, error) {
	h.got = append(h.got, f)
	return media.Result{URL: "https://cdn.example.com/" + f.Name}, nil
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// ログイン済みとして扱う
func asUser(id int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id > 0 {
				c.Set(middleware.CtxUserIDKey, id)
			}
			return next(c)
		}
	}
}

func multipartFile(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postMedia(t *testing.T, userID int64, path, name, contentType string, data []byte) (*httptest.ResponseRecorder, *hostStub) {
	t.Helper()
	host := &hostStub{}
	e := echo.New()
	NewMediaHandler(usecase.NewMediaUsecase(host, media.NewPreviewStore(1))).
		RegisterRoutes(e, asUser(userID), passThrough, e.Group("/admin"))

	body, ct := multipartFile(t, name, contentType, data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, host
}

// =====================
// /media/review-images
// =====================

func TestMediaHandler_ReviewImage_Uploads(t *testing.T) {
	rec, host := postMedia(t, 7, "/media/review-images", "shot.png", "application/octet-stream", pngBytes)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://cdn.example.com/shot.png")
	require.Len(t, host.got, 1)
	// 中身から判定した型で渡る
	assert.Equal(t, "image/png", host.got[0].ContentType)
}

// 動画は管理画面だけ
func TestMediaHandler_ReviewImage_RejectsVideo(t *testing.T) {
	rec, host := postMedia(t, 7, "/media/review-images", "clip.mp4", "video/mp4", []byte("not really a video"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only images can be uploaded")
	assert.Empty(t, host.got)
}

func TestMediaHandler_ReviewImage_RequiresUser(t *testing.T) {
	rec, host := postMedia(t, 0, "/media/review-images", "shot.png", "image/png", pngBytes)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, host.got)
}

func TestMediaHandler_ReviewImage_NoFile(t *testing.T) {
	e := echo.New()
	NewMediaHandler(usecase.NewMediaUsecase(&hostStub{}, media.NewPreviewStore(1))).
		RegisterRoutes(e, asUser(7), passThrough, e.Group("/admin"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/media/review-images", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// 管理者ルートは動画も受け付ける
func TestMediaHandler_AdminUpload_AcceptsVideo(t *testing.T) {
	rec, host := postMedia(t, 1, "/admin/media", "clip.mp4", "video/mp4", []byte("frames"))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, host.got, 1)
	assert.True(t, host.got[0].IsVideo())
}
