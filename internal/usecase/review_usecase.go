package usecase

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewUsecase struct {
	tx      repo.TransactionManager
	reviews repo.ReviewRepository
	users   repo.UserRepository
}

func NewReviewUsecase(tx repo.TransactionManager, reviews repo.ReviewRepository, users repo.UserRepository) *ReviewUsecase {
	return &ReviewUsecase{tx: tx, reviews: reviews, users: users}
}

type CreateReviewInput struct {
	Rating  int
	Comment string
	Images  []string
}

// 平均は小数1桁に丸める
func RunningAverage(current float64, count int64, rating int) float64 {
	total := decimal.NewFromFloat(current).Mul(decimal.NewFromInt(count)).Add(decimal.NewFromInt(int64(rating)))
	avg := total.Div(decimal.NewFromInt(count + 1)).Round(1)
	f, _ := avg.Float64()
	return f
}

// レビュー作成と商品の評価更新は同じTxで
func (u *ReviewUsecase) Create(ctx context.Context, userID, productID int64, in CreateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	if productID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	name := ""
	if user, err := u.users.FindByID(ctx, userID); err == nil && user != nil {
		name = user.DisplayName
		if name == "" {
			name = strings.SplitN(user.Email, "@", 2)[0]
		}
	}

	rv := model.Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  name,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		Images:    nonNil(in.Images),
		Approved:  true,
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return err
		}

		if err := r.Reviews().Create(ctx, &rv); err != nil {
			return err
		}

		rating := RunningAverage(p.Rating, p.ReviewCount, in.Rating)
		return r.Products().UpdateReviewStats(ctx, productID, rating, p.ReviewCount+1)
	})
	if err != nil {
		return model.Review{}, txError(err)
	}
	return rv, nil
}

// 承認済みだけ
func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	list, err := u.reviews.ListByProductID(ctx, productID, true)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

func (u *ReviewUsecase) AdminListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	list, err := u.reviews.ListByProductID(ctx, productID, false)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

func (u *ReviewUsecase) Approve(ctx context.Context, reviewID int64) (model.Review, error) {
	rv, err := u.reviews.Approve(ctx, reviewID)
	if err == repo.ErrNotFound {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rv, nil
}
