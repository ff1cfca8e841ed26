package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/infra/broker"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

type RestockUsecase struct {
	tx       repo.TransactionManager
	restocks repo.RestockRepository
	products repo.ProductRepository
	users    repo.UserRepository
	pub      broker.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewRestockUsecase(
	tx repo.TransactionManager,
	restocks repo.RestockRepository,
	products repo.ProductRepository,
	users repo.UserRepository,
	pub broker.Publisher,
	log *zap.Logger,
) *RestockUsecase {
	return &RestockUsecase{
		tx:       tx,
		restocks: restocks,
		products: products,
		users:    users,
		pub:      pub,
		log:      log,
		now:      time.Now,
	}
}

type RestockNotifyOutput struct {
	ProductID int64 `json:"product_id"`
	Notified  int   `json:"notified"`
}

// 在庫切れ商品の入荷通知を申し込む。pendingが既にあればそれを返す
func (u *RestockUsecase) Subscribe(ctx context.Context, userID, productID int64) (model.RestockSubscription, error) {
	if userID <= 0 {
		return model.RestockSubscription{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	if productID <= 0 {
		return model.RestockSubscription{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.RestockSubscription{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.RestockSubscription{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.Purchasable() {
		return model.RestockSubscription{}, NewHTTPError(http.StatusBadRequest, "product is in stock")
	}

	existing, found, err := u.restocks.FindPending(ctx, productID, userID)
	if err != nil {
		return model.RestockSubscription{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if found {
		return existing, nil
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return model.RestockSubscription{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	s := model.RestockSubscription{
		ProductID: productID,
		UserID:    userID,
		Email:     user.Email,
		Status:    model.RestockPending,
	}
	if err := u.restocks.Create(ctx, &s); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			//同時に申し込まれた
			if ex, ok, ferr := u.restocks.FindPending(ctx, productID, userID); ferr == nil && ok {
				return ex, nil
			}
		}
		return model.RestockSubscription{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

func (u *RestockUsecase) List(ctx context.Context) ([]model.RestockSubscription, error) {
	list, err := u.restocks.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

// pendingの全員に通知してnotifiedにする。途中で失敗したら全部やり直し
func (u *RestockUsecase) NotifySubscribers(ctx context.Context, productID int64) (RestockNotifyOutput, error) {
	if productID <= 0 {
		return RestockNotifyOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	out := RestockNotifyOutput{ProductID: productID}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return err
		}

		subs, err := r.Restocks().ListPendingForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			return nil
		}

		now := u.now()
		msg := fmt.Sprintf("Good news! \"%s\" is back in stock.", p.Name)
		ns := make([]model.Notification, 0, len(subs))
		ids := make([]int64, 0, len(subs))
		for _, s := range subs {
			owner := s.UserID
			ns = append(ns, model.Notification{
				UserID:    &owner,
				Message:   msg,
				Type:      model.NotificationRestock,
				Link:      fmt.Sprint(p.ID),
				CreatedAt: now,
			})
			ids = append(ids, s.ID)
		}

		if err := r.Notifications().CreateBulk(ctx, ns); err != nil {
			return err
		}
		if err := r.Restocks().MarkNotified(ctx, ids); err != nil {
			return err
		}
		out.Notified = len(subs)
		return nil
	})
	if err != nil {
		return RestockNotifyOutput{}, txError(err)
	}

	if out.Notified > 0 {
		metrics.NotificationsFannedOutTotal.WithLabelValues(string(model.NotificationRestock)).Add(float64(out.Notified))
		publish(ctx, u.pub, u.log, fmt.Sprint(productID), broker.EventRestockNotified, out)
		u.log.Info("restock subscribers notified", zap.Int64("product_id", productID), zap.Int("count", out.Notified))
	}
	return out, nil
}
