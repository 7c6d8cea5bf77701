package images

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, a *ImageAsset) error
	GetByID(ctx context.Context, id int64) (*ImageAsset, error)
	GetLatestByReference(ctx context.Context, referenceID, referenceType string) (*ImageAsset, error)
	Update(ctx context.Context, a *ImageAsset) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*ImageAsset, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *ImageAsset) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateStoredName, a.StoredFilename)
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*ImageAsset, error) {
	var a ImageAsset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetLatestByReference returns the newest upload for the pair; equal
// timestamps are broken by the higher id.
func (r *repository) GetLatestByReference(ctx context.Context, referenceID, referenceType string) (*ImageAsset, error) {
	var a ImageAsset
	err := r.db.WithContext(ctx).
		Where("reference_id = ? AND reference_type = ?", referenceID, referenceType).
		Order("uploaded_at DESC").
		Order("id DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Update writes the mutable columns only.
func (r *repository) Update(ctx context.Context, a *ImageAsset) error {
	res := r.db.WithContext(ctx).
		Model(&ImageAsset{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"uploaded_by":       a.UploadedBy,
			"original_filename": a.OriginalFilename,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&ImageAsset{}).Error
}

func (r *repository) List(ctx context.Context) ([]*ImageAsset, error) {
	var assets []*ImageAsset
	err := r.db.WithContext(ctx).Order("id ASC").Find(&assets).Error
	return assets, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite drivers do not expose a typed error through gorm
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
