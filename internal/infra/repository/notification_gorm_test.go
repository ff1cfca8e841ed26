package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// read receipts
// =====================

// 既読レシートは衝突したら何もしない
func TestNotificationGorm_UpsertReadReceipts(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewNotificationGormRepository(gdb)

	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "announcement_reads" ("notification_id","user_id","read_at") VALUES ($1,$2,$3),($4,$5,$6) ON CONFLICT DO NOTHING`)).
		WithArgs(int64(1), int64(7), at, int64(2), int64(7), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.UpsertReadReceipts(context.Background(), 7, []int64{1, 2}, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationGorm_UpsertReadReceipts_Empty(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewNotificationGormRepository(gdb)

	require.NoError(t, r.UpsertReadReceipts(context.Background(), 7, nil, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 自分宛てだけ消す
func TestNotificationGorm_DeleteAllByUserID(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewNotificationGormRepository(gdb)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notifications" WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, r.DeleteAllByUserID(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
