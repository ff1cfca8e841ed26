package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

func TestAddressUsecase_Create(t *testing.T) {
	addrs := new(AddressRepoMock)
	uc := usecase.NewAddressUsecase(addrs)

	created := model.Address{ID: 3, UserID: 7, Name: "Ada", Address: "1 Marina", City: "Lagos", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	addrs.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.UserID == 7 && a.Name == "Ada" && a.City == "Lagos" && !a.IsDefault
	})).Return(created, nil)

	out, err := uc.Create(context.Background(), 7, usecase.AddressRequest{Name: " Ada ", Address: "1 Marina", City: " Lagos "})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.ID)
	assert.Equal(t, "2026-01-02T03:04:05Z", out.CreatedAt)
}

func TestAddressUsecase_Create_Validation(t *testing.T) {
	uc := usecase.NewAddressUsecase(new(AddressRepoMock))

	_, err := uc.Create(context.Background(), 7, usecase.AddressRequest{Name: "Ada", Address: " "})
	assertErrContains(t, err, "name, address and city are required")

	_, err = uc.Create(context.Background(), 0, usecase.AddressRequest{})
	assertErrContains(t, err, "unauthorized")
}

// 本人以外は403、存在しなければ404
func TestAddressUsecase_Ownership(t *testing.T) {
	addrs := new(AddressRepoMock)
	uc := usecase.NewAddressUsecase(addrs)

	addrs.On("FindByID", mock.Anything, int64(5)).Return(model.Address{ID: 5, UserID: 8}, nil)
	addrs.On("FindByID", mock.Anything, int64(6)).Return(model.Address{}, repo.ErrNotFound)

	assertErrContains(t, uc.Delete(context.Background(), 7, 5), "403")
	assertErrContains(t, uc.SetDefault(context.Background(), 7, 5), "403")
	assertErrContains(t, uc.Update(context.Background(), 7, 6, usecase.AddressRequest{Name: "a", Address: "b", City: "c"}), "404")
	assertErrContains(t, uc.Delete(context.Background(), 7, 0), "invalid id")

	addrs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAddressUsecase_SetDefault(t *testing.T) {
	addrs := new(AddressRepoMock)
	uc := usecase.NewAddressUsecase(addrs)

	addrs.On("FindByID", mock.Anything, int64(5)).Return(model.Address{ID: 5, UserID: 7}, nil)
	addrs.On("SetDefault", mock.Anything, int64(7), int64(5)).Return(nil)

	require.NoError(t, uc.SetDefault(context.Background(), 7, 5))
	addrs.AssertExpectations(t)
}

// 注文で使われている住所は消せない
func TestAddressUsecase_Delete_InUse(t *testing.T) {
	addrs := new(AddressRepoMock)
	uc := usecase.NewAddressUsecase(addrs)

	addrs.On("FindByID", mock.Anything, int64(5)).Return(model.Address{ID: 5, UserID: 7}, nil)
	addrs.On("Delete", mock.Anything, int64(7), int64(5)).Return(repo.ErrInUse)

	assertErrContains(t, uc.Delete(context.Background(), 7, 5), "address is in use")
}

func TestAddressUsecase_Delete_DBError(t *testing.T) {
	addrs := new(AddressRepoMock)
	uc := usecase.NewAddressUsecase(addrs)

	addrs.On("FindByID", mock.Anything, int64(5)).Return(model.Address{ID: 5, UserID: 7}, nil)
	addrs.On("Delete", mock.Anything, int64(7), int64(5)).Return(errors.New("conn reset"))

	assertErrContains(t, uc.Delete(context.Background(), 7, 5), "db error")
}

func TestAddressUsecase_List(t *testing.T) {
	addrs := new(AddressRepoMock)
	uc := usecase.NewAddressUsecase(addrs)

	addrs.On("ListByUserID", mock.Anything, int64(7)).Return([]model.Address{{ID: 1, UserID: 7, IsDefault: true}, {ID: 2, UserID: 7}}, nil)

	list, err := uc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsDefault)
	assert.NotNil(t, list[1].UpdatedAt)
}
