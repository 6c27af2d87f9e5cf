package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FileMetadata records one file pinned to IPFS on behalf of a wallet.
// Rows are created exactly once, after a successful pin, and are never
// updated or deleted.
type FileMetadata struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"size:64;index;not null" json:"wallet_address"`
	FileName      string    `gorm:"size:512;not null" json:"file_name"`
	IpfsCid       string    `gorm:"size:128;not null" json:"ipfs_cid"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps the table name used by the original schema.
func (FileMetadata) TableName() string {
	return "filemetadata"
}

// FileStore persists and retrieves FileMetadata rows. It is the sole source
// of truth for generated ids and creation timestamps.
type FileStore struct {
	db *gorm.DB
}

// NewFileStore creates a FileStore bound to the given database handle.
func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Insert appends one row and returns it with its assigned id and timestamp.
func (s *FileStore) Insert(ctx context.Context, walletAddress, fileName, ipfsCid string) (FileMetadata, error) {
	record := FileMetadata{
		WalletAddress: walletAddress,
		FileName:      fileName,
		IpfsCid:       ipfsCid,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return FileMetadata{}, err
	}
	return record, nil
}

// ListByWallet returns all records for the wallet ordered by creation time
// descending. A wallet with no records yields an empty slice, not an error.
func (s *FileStore) ListByWallet(ctx context.Context, walletAddress string) ([]FileMetadata, error) {
	records := make([]FileMetadata, 0)
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
