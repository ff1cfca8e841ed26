package media

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrEmptyFile      = errors.New("empty file")
	ErrPreviewMissing = errors.New("preview not found")
)

// アップロードするファイル
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// 動画か
func (f File) IsVideo() bool {
	return strings.HasPrefix(f.ContentType, "video/")
}

type Result struct {
	URL string `json:"url"`
	// プレビュー置き場に入った（永続化されていない）
	Fallback bool `json:"fallback"`
}

type Host interface {
	Upload(ctx context.Context, f File) (Result, error)
}
