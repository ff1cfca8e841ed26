package usecase

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/infra/broker"
	repo "storefront/internal/repository"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	pub    broker.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, pub broker.Publisher, log *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, orders: orders, pub: pub, log: log, now: time.Now}
}

type OrderItemOutput struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Image         string `json:"image"`
	SelectedColor string `json:"selected_color,omitempty"`
	SelectedSize  string `json:"selected_size,omitempty"`
	Quantity      int64  `json:"quantity"`
}

type OrderOutput struct {
	ID               int64                 `json:"id"`
	UserID           int64                 `json:"user_id"`
	Status           string                `json:"status"`
	StatusHistory    []model.StatusEntry   `json:"status_history"`
	Subtotal         int64                 `json:"subtotal"`
	Discount         int64                 `json:"discount"`
	CouponCode       *string               `json:"coupon_code,omitempty"`
	ShippingFee      int64                 `json:"shipping_fee"`
	Total            int64                 `json:"total"`
	ShippingDetails  model.ShippingDetails `json:"shipping_details"`
	PaymentReference string                `json:"payment_reference"`
	PaymentStatus    string                `json:"payment_status"`
	CreatedAt        time.Time             `json:"created_at"`
	Items            []OrderItemOutput     `json:"items"`
}

type TransitionInput struct {
	Status string
	// 後戻り・同順位への変更を許可（管理者のみ）
	Override bool
}

// 自分の注文（新しい順）
func (u *OrderUsecase) ListMine(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//保存側は順序を保証しないのでここで並べる
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	outs := make([]OrderOutput, 0, len(orders))
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, txError(err)
	}
	return outs, nil
}

func (u *OrderUsecase) GetMine(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	return out, nil
}

// 利用者が受け取りを確定する（shipped→deliveredのみ）
func (u *OrderUsecase) ConfirmDelivery(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return transitionOrder(ctx, transitionDeps{tx: u.tx, pub: u.pub, log: u.log, now: u.now}, transitionRequest{
		actorID: userID,
		orderID: orderID,
		to:      model.OrderStatusDelivered,
	})
}

// 自分の注文を削除（在庫は戻さない）
func (u *OrderUsecase) Delete(ctx context.Context, userID int64, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return deleteOrder(ctx, u.tx, orderID, func(_ repo.TxRepos, o model.Order) error {
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return nil
	})
}

// 自分の注文をすべて削除。他人の注文には触れない
func (u *OrderUsecase) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var deleted int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.OrderItems().DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		n, err := r.Orders().DeleteAllByUserID(ctx, userID)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, txError(err)
	}

	u.log.Info("orders cleared", zap.Int64("user_id", userID), zap.Int64("deleted", deleted))
	return deleted, nil
}

type transitionDeps struct {
	tx  repo.TransactionManager
	pub broker.Publisher
	log *zap.Logger
	now func() time.Time
}

type transitionRequest struct {
	actorID  int64
	orderID  int64
	to       model.OrderStatus
	override bool
	// 管理者操作なら監査ログを書く
	admin bool
}

// ステータス遷移の共通処理（行ロック→検証→履歴追加→通知）
func transitionOrder(ctx context.Context, d transitionDeps, req transitionRequest) (OrderOutput, error) {
	if req.orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !req.to.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out    OrderOutput
		before model.OrderStatus
	)
	err := d.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, req.orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		if !req.admin {
			if o.UserID != req.actorID {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			if o.Status != model.OrderStatusShipped || req.to != model.OrderStatusDelivered {
				return NewHTTPError(http.StatusForbidden, "only shipped orders can be marked as delivered")
			}
		}

		//前進のみ。後戻り・同じ段階はoverride必須
		if req.to.Rank() <= o.Status.Rank() && !(req.admin && req.override) {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot move order from %s to %s", o.Status, req.to))
		}

		before = o.Status
		now := d.now()
		history := append(append([]model.StatusEntry{}, o.StatusHistory...), model.StatusEntry{Status: req.to, Timestamp: now})
		if err := r.Orders().UpdateStatus(ctx, o.ID, req.to, history); err != nil {
			return err
		}
		o.Status = req.to
		o.StatusHistory = history

		if req.to == model.OrderStatusShipped {
			owner := o.UserID
			if err := r.Notifications().Create(ctx, &model.Notification{
				UserID:    &owner,
				Message:   shippedMessage(o.ID),
				Type:      model.NotificationOrder,
				Link:      "/orders",
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		if req.admin {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  req.actorID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   o.ID,
				BeforeJSON:   toJSON(map[string]string{"status": string(before)}),
				AfterJSON:    toJSON(map[string]interface{}{"status": string(req.to), "override": req.override}),
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}

	publish(ctx, d.pub, d.log, fmt.Sprint(out.ID), broker.EventOrderStatusChanged, map[string]interface{}{
		"order_id": out.ID,
		"user_id":  out.UserID,
		"from":     before,
		"to":       req.to,
	})
	return out, nil
}

func shippedMessage(orderID int64) string {
	id := fmt.Sprint(orderID)
	if len(id) > 8 {
		id = id[:8]
	}
	return "Your order #" + id + " has been shipped!"
}

// 明細→注文の順に消す
func deleteOrder(ctx context.Context, tx repo.TransactionManager, orderID int64, allow func(r repo.TxRepos, o model.Order) error) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		if err := allow(r, o); err != nil {
			return err
		}
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}
		return r.Orders().Delete(ctx, orderID)
	})
	return txError(err)
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:     it.ProductID,
			Name:          it.Name,
			Price:         it.Price,
			Image:         it.Image,
			SelectedColor: it.SelectedColor,
			SelectedSize:  it.SelectedSize,
			Quantity:      it.Quantity,
		})
	}

	history := o.StatusHistory
	if history == nil {
		history = []model.StatusEntry{}
	}

	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           string(o.Status),
		StatusHistory:    history,
		Subtotal:         o.Subtotal,
		Discount:         o.Discount,
		CouponCode:       o.CouponCode,
		ShippingFee:      o.ShippingFee,
		Total:            o.Total,
		ShippingDetails:  o.Shipping,
		PaymentReference: o.PaymentReference,
		PaymentStatus:    o.PaymentStatus,
		CreatedAt:        o.CreatedAt,
		Items:            outItems,
	}
}

func parseOrderStatus(s string) model.OrderStatus {
	return model.OrderStatus(strings.ToLower(strings.TrimSpace(s)))
}
