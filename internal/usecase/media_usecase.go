package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/infra/media"
)

const (
	// 画像・動画のアップロード上限
	maxUploadBytes = 20 << 20
	// レビュー画像（一般ユーザー）の上限
	maxReviewImageBytes = 5 << 20
)

type MediaUsecase struct {
	host     media.Host
	previews *media.PreviewStore
}

func NewMediaUsecase(host media.Host, previews *media.PreviewStore) *MediaUsecase {
	return &MediaUsecase{host: host, previews: previews}
}

func (u *MediaUsecase) Upload(ctx context.Context, f media.File) (media.Result, error) {
	if len(f.Data) == 0 {
		return media.Result{}, NewHTTPError(http.StatusBadRequest, "file required")
	}
	if len(f.Data) > maxUploadBytes {
		return media.Result{}, NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	if !strings.HasPrefix(f.ContentType, "image/") && !f.IsVideo() {
		return media.Result{}, NewHTTPError(http.StatusBadRequest, "only images and videos can be uploaded")
	}

	return u.store(ctx, f)
}

// 一般ユーザーのレビュー画像。画像だけ、上限も小さい
func (u *MediaUsecase) UploadReviewImage(ctx context.Context, userID int64, f media.File) (media.Result, error) {
	if userID <= 0 {
		return media.Result{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	if len(f.Data) == 0 {
		return media.Result{}, NewHTTPError(http.StatusBadRequest, "file required")
	}
	if len(f.Data) > maxReviewImageBytes {
		return media.Result{}, NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return media.Result{}, NewHTTPError(http.StatusBadRequest, "only images can be uploaded")
	}
	return u.store(ctx, f)
}

func (u *MediaUsecase) store(ctx context.Context, f media.File) (media.Result, error) {
	res, err := u.host.Upload(ctx, f)
	if err != nil {
		if errors.Is(err, media.ErrEmptyFile) {
			return media.Result{}, NewHTTPError(http.StatusBadRequest, "file required")
		}
		return media.Result{}, NewHTTPError(http.StatusBadGateway, "upload failed")
	}
	return res, nil
}

func (u *MediaUsecase) Preview(id string) (media.File, error) {
	f, err := u.previews.Get(id)
	if err != nil {
		return media.File{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return f, nil
}
