package images

import (
	"time"

	"gorm.io/gorm"
)

// ImageAsset is one stored image: a metadata row plus exactly one blob on disk.
// Only OriginalFilename and UploadedBy change after creation.
type ImageAsset struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OriginalFilename string    `gorm:"column:original_filename;size:255"`
	StoredFilename   string    `gorm:"column:stored_filename;size:255;not null;uniqueIndex"` // uuid[.ext] on disk
	ContentType      string    `gorm:"column:content_type;size:255;not null"`
	SizeBytes        int64     `gorm:"column:size_bytes;not null"`
	UploadedBy       string    `gorm:"column:uploaded_by;size:255;not null"`
	UploadedAt       time.Time `gorm:"column:uploaded_at;not null;index:idx_image_asset_reference,priority:3"`
	ChecksumSHA256   string    `gorm:"column:checksum_sha256;size:64;not null"` // ETag
	Width            *int      `gorm:"column:width"`
	Height           *int      `gorm:"column:height"`
	ReferenceID      string    `gorm:"column:reference_id;size:255;not null;index:idx_image_asset_reference,priority:1"`
	ReferenceType    string    `gorm:"column:reference_type;size:255;not null;index:idx_image_asset_reference,priority:2"`
}

func (ImageAsset) TableName() string { return "image_asset" }

// AutoMigrate creates or updates the image_asset table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ImageAsset{})
}
