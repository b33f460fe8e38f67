package store

import (
	"errors"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no transaction matches a lookup.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore is the durable record of every payment attempt.
// UpdateIfPending is the serialization point for concurrent callback
// deliveries: only a row still in pending status is mutated, so at most one
// of several duplicate deliveries wins and the rest observe updated=false.
type TransactionStore interface {
	InsertPending(tx *models.Transaction) error
	UpdateIfPending(checkoutRequestID string, fields map[string]interface{}) (updated bool, err error)
	GetByCheckoutRequestID(checkoutRequestID string) (*models.Transaction, error)
	ListByUser(userID uint) ([]models.Transaction, error)
}

// IdempotencyStore maps caller-supplied initiation keys to the checkout
// request id they produced.
type IdempotencyStore interface {
	LookupKey(userID uint, key string) (checkoutRequestID string, err error)
	RecordKey(userID uint, key, checkoutRequestID string) error
}

// GormStore backs the payment stores with MySQL through gorm.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) InsertPending(tx *models.Transaction) error {
	tx.Status = models.TransactionStatusPending
	return s.DB.Create(tx).Error
}

func (s *GormStore) UpdateIfPending(checkoutRequestID string, fields map[string]interface{}) (bool, error) {
	result := s.DB.Model(&models.Transaction{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, models.TransactionStatusPending).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) GetByCheckoutRequestID(checkoutRequestID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.DB.Where("checkout_request_id = ?", checkoutRequestID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (s *GormStore) ListByUser(userID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *GormStore) LookupKey(userID uint, key string) (string, error) {
	var record models.IdempotencyKey
	if err := s.DB.Where("user_id = ? AND `key` = ?", userID, key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return record.CheckoutRequestID, nil
}

func (s *GormStore) RecordKey(userID uint, key, checkoutRequestID string) error {
	return s.DB.Create(&models.IdempotencyKey{
		UserID:            userID,
		Key:               key,
		CheckoutRequestID: checkoutRequestID,
	}).Error
}
