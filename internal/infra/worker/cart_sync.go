package worker

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSaved   SyncStatus = "saved"
	SyncFailed  SyncStatus = "failed"
)

// カートの保存先
type CartSaver interface {
	Save(ctx context.Context, userID int64, lines []model.CartLine) error
}

type CartSyncConfig struct {
	RPS         float64
	Burst       int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// カートの書き込みを裏で行う。ユーザーごとに最新だけ残す
type CartSyncWorker struct {
	saver CartSaver
	log   *zap.Logger
	cfg   CartSyncConfig

	limiter *rate.Limiter

	mu      sync.Mutex
	pending map[int64][]model.CartLine
	order   []int64
	status  map[int64]SyncStatus
	// 直近の失敗（画面表示用）
	lastErr map[int64]string

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

func NewCartSyncWorker(saver CartSaver, cfg CartSyncConfig, log *zap.Logger) *CartSyncWorker {
	if cfg.RPS <= 0 {
		cfg.RPS = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	return &CartSyncWorker{
		saver:   saver,
		log:     log,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		pending: map[int64][]model.CartLine{},
		status:  map[int64]SyncStatus{},
		lastErr: map[int64]string{},
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		sleep:   sleepCtx,
	}
}

// 最新のスナップショットを積む（同じユーザーの古いものは上書き）
func (w *CartSyncWorker) Enqueue(userID int64, lines []model.CartLine) {
	snapshot := make([]model.CartLine, len(lines))
	copy(snapshot, lines)

	w.mu.Lock()
	if _, queued := w.pending[userID]; !queued {
		w.order = append(w.order, userID)
	}
	w.pending[userID] = snapshot
	w.status[userID] = SyncPending
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// 一度も積まれていなければsaved
func (w *CartSyncWorker) Status(userID int64) SyncStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.status[userID]; ok {
		return s
	}
	return SyncSaved
}

func (w *CartSyncWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// 残りはできるだけ書いてから止まる
func (w *CartSyncWorker) Stop(ctx context.Context) {
	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
	}
}

func (w *CartSyncWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.drain(context.Background(), 1)
			return
		case <-w.stop:
			w.drain(context.Background(), 1)
			return
		case <-w.wake:
			w.drain(ctx, w.cfg.MaxAttempts)
		}
	}
}

// 積まれている分を全部処理する
func (w *CartSyncWorker) drain(ctx context.Context, attempts int) {
	for {
		userID, lines, ok := w.next()
		if !ok {
			return
		}
		err := w.write(ctx, userID, lines, attempts)
		w.finish(userID, err)
	}
}

func (w *CartSyncWorker) next() (int64, []model.CartLine, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.order) == 0 {
		return 0, nil, false
	}
	userID := w.order[0]
	w.order = w.order[1:]
	lines := w.pending[userID]
	delete(w.pending, userID)
	return userID, lines, true
}

func (w *CartSyncWorker) finish(userID int64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 書いている間に次が積まれたらpendingのまま
	if _, again := w.pending[userID]; again {
		return
	}
	if err != nil {
		w.status[userID] = SyncFailed
		w.lastErr[userID] = err.Error()
		return
	}
	w.status[userID] = SyncSaved
	delete(w.lastErr, userID)
}

func (w *CartSyncWorker) write(ctx context.Context, userID int64, lines []model.CartLine, attempts int) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if werr := w.limiter.Wait(ctx); werr != nil {
			err = werr
			break
		}

		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = w.saver.Save(writeCtx, userID, lines)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		metrics.CartSyncRetriesTotal.Inc()
		w.log.Debug("cart sync retry",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if serr := w.sleep(ctx, w.backoff(attempt)); serr != nil {
			err = serr
			break
		}
	}

	metrics.CartSyncFailuresTotal.Inc()
	w.log.Warn("cart sync failed",
		zap.Int64("user_id", userID),
		zap.Int("lines", len(lines)),
		zap.Error(err),
	)
	return err
}

// base * 2^(attempt-1) に揺らぎを足す
func (w *CartSyncWorker) backoff(attempt int) time.Duration {
	d := w.cfg.BaseDelay << (attempt - 1)
	if d <= 0 || d > w.cfg.MaxDelay {
		d = w.cfg.MaxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(w.cfg.BaseDelay)))
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
