package repositories

import (
	"fmt"

	"github.com/garbage_complaint/internal/models"
	"gorm.io/gorm"
)

// StorageError reports a failed read or write against the complaint store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ComplaintRepository 定义了投诉数据仓库的接口
type ComplaintRepository interface {
	EnsureSchema() error
	Insert(complaint *models.Complaint) (int64, error)
	ListAll() ([]models.Complaint, error)
	Count() (int64, error)
}

// gormComplaintRepository 是 ComplaintRepository 的 GORM 实现
type gormComplaintRepository struct {
	db *gorm.DB
}

// NewGormComplaintRepository 创建一个新的 gormComplaintRepository 实例
func NewGormComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &gormComplaintRepository{db: db}
}

// EnsureSchema creates the complaints table when it is missing and does nothing otherwise.
// Existing tables are never altered.
func (r *gormComplaintRepository) EnsureSchema() error {
	migrator := r.db.Migrator()
	if migrator.HasTable(&models.Complaint{}) {
		return nil
	}
	if err := migrator.CreateTable(&models.Complaint{}); err != nil {
		return &StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Insert appends a complaint and returns the id assigned by the store.
func (r *gormComplaintRepository) Insert(complaint *models.Complaint) (int64, error) {
	if err := r.db.Create(complaint).Error; err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	return complaint.ID, nil
}

// ListAll returns every complaint in the order the store yields them.
func (r *gormComplaintRepository) ListAll() ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	if err := r.db.Find(&complaints).Error; err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return complaints, nil
}

func (r *gormComplaintRepository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&models.Complaint{}).Count(&n).Error; err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}
