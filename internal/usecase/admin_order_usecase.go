package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/infra/broker"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx  repo.TransactionManager
	pub broker.Publisher
	log *zap.Logger
	now func() time.Time
}

func NewAdminOrderUsecase(tx repo.TransactionManager, pub broker.Publisher, log *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, pub: pub, log: log, now: time.Now}
}

type AdminOrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// 注文一覧（新しい順）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		st := parseOrderStatus(f.Status)
		if !st.Valid() {
			return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = string(st)
	}

	out := AdminOrderListOutput{Orders: []OrderOutput{}, Page: f.Page, Limit: f.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			out.Orders = append(out.Orders, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return AdminOrderListOutput{}, txError(err)
	}
	return out, nil
}

// ステータス更新。前進は自由、後戻りはoverride指定
func (u *AdminOrderUsecase) TransitionStatus(ctx context.Context, adminUserID int64, orderID int64, in TransitionInput) (OrderOutput, error) {
	if adminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return transitionOrder(ctx, transitionDeps{tx: u.tx, pub: u.pub, log: u.log, now: u.now}, transitionRequest{
		actorID:  adminUserID,
		orderID:  orderID,
		to:       parseOrderStatus(in.Status),
		override: in.Override,
		admin:    true,
	})
}

// 注文削除（在庫は戻さない）
func (u *AdminOrderUsecase) Delete(ctx context.Context, adminUserID int64, orderID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return deleteOrder(ctx, u.tx, orderID, func(r repo.TxRepos, o model.Order) error {
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   toJSON(map[string]interface{}{"status": o.Status, "user_id": o.UserID, "total": o.Total}),
			CreatedAt:    u.now(),
		})
	})
}

// 期間パラメータ（handlerから）
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
