package media

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/metrics"
)

const PreviewPathPrefix = "/media/preview/"

// 失敗時のプレビュー置き場（プロセス内・上限あり）
type PreviewStore struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]File
}

func NewPreviewStore(max int) *PreviewStore {
	if max <= 0 {
		max = 64
	}
	return &PreviewStore{max: max, entries: map[string]File{}}
}

// 上限を超えたら古いものから捨てる
func (s *PreviewStore) Put(f File) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	s.entries[id] = f
	s.order = append(s.order, id)
	return id
}

func (s *PreviewStore) Get(id string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.entries[id]
	if !ok {
		return File{}, ErrPreviewMissing
	}
	return f, nil
}

// 本来のホストが失敗したらプレビューURLを返す
type FallbackHost struct {
	primary Host
	store   *PreviewStore
	log     *zap.Logger
}

func NewFallbackHost(primary Host, store *PreviewStore, log *zap.Logger) *FallbackHost {
	return &FallbackHost{primary: primary, store: store, log: log}
}

func (h *FallbackHost) Upload(ctx context.Context, f File) (Result, error) {
	if len(f.Data) == 0 {
		return Result{}, ErrEmptyFile
	}
	res, err := h.primary.Upload(ctx, f)
	if err == nil {
		return res, nil
	}

	h.log.Warn("media upload failed, serving preview",
		zap.String("file", f.Name),
		zap.Error(err),
	)
	metrics.MediaUploadFallbacksTotal.Inc()

	id := h.store.Put(f)
	return Result{URL: PreviewPathPrefix + id, Fallback: true}, nil
}
