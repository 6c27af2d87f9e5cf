package models

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStoreWithMock(t *testing.T) (*FileStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewFileStore(gdb), mock, sqlDB
}

func TestInsertAssignsID(t *testing.T) {
	store, mock, sqlDB := newStoreWithMock(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `filemetadata`")).
		WithArgs("0xabc", "report.pdf", "Qm123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	record, err := store.Insert(context.Background(), "0xabc", "report.pdf", "Qm123")
	require.NoError(t, err)
	require.Equal(t, uint(42), record.ID)
	require.Equal(t, "Qm123", record.IpfsCid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPropagatesError(t *testing.T) {
	store, mock, sqlDB := newStoreWithMock(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `filemetadata`")).
		WithArgs("0xabc", "report.pdf", "Qm123", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err := store.Insert(context.Background(), "0xabc", "report.pdf", "Qm123")
	require.ErrorContains(t, err, "connection lost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByWalletOrdersNewestFirst(t *testing.T) {
	store, mock, sqlDB := newStoreWithMock(t)
	defer sqlDB.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "wallet_address", "file_name", "ipfs_cid", "created_at"}).
		AddRow(2, "0xabc", "newer.pdf", "Qm456", now).
		AddRow(1, "0xabc", "older.pdf", "Qm123", now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `filemetadata` WHERE wallet_address = ? ORDER BY created_at DESC")).
		WithArgs("0xabc").
		WillReturnRows(rows)

	records, err := store.ListByWallet(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "newer.pdf", records[0].FileName)
	require.Equal(t, "older.pdf", records[1].FileName)
	require.True(t, records[0].CreatedAt.After(records[1].CreatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByWalletEmptyIsNotAnError(t *testing.T) {
	store, mock, sqlDB := newStoreWithMock(t)
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `filemetadata` WHERE wallet_address = ? ORDER BY created_at DESC")).
		WithArgs("0xnobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "wallet_address", "file_name", "ipfs_cid", "created_at"}))

	records, err := store.ListByWallet(context.Background(), "0xnobody")
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}
