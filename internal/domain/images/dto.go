package images

import "time"

// MetaResponse is the public projection of an ImageAsset.
// The stored filename is never exposed.
type MetaResponse struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	ContentType      string    `json:"contentType"`
	SizeBytes        int64     `json:"sizeBytes"`
	UploadedBy       string    `json:"uploadedBy"`
	UploadedAt       time.Time `json:"uploadedAt"`
	ChecksumSHA256   string    `json:"checksumSha256"`
	Width            *int      `json:"width"`
	Height           *int      `json:"height"`
	ReferenceID      string    `json:"referenceId"`
	ReferenceType    string    `json:"referenceType"`
}

// UpdateMetaRequest carries the two editable fields. Nil or blank values
// leave the stored value unchanged.
type UpdateMetaRequest struct {
	UploadedBy       *string `json:"uploadedBy" validate:"omitempty,max=255"`
	OriginalFilename *string `json:"originalFilename" validate:"omitempty,max=255"`
}

type UploadResponse struct {
	ID          int64  `json:"id"`
	DownloadURL string `json:"downloadUrl"`
	MetaURL     string `json:"metaUrl"`
}

func toMeta(a *ImageAsset) MetaResponse {
	return MetaResponse{
		ID:               a.ID,
		OriginalFilename: a.OriginalFilename,
		ContentType:      a.ContentType,
		SizeBytes:        a.SizeBytes,
		UploadedBy:       a.UploadedBy,
		UploadedAt:       a.UploadedAt,
		ChecksumSHA256:   a.ChecksumSHA256,
		Width:            a.Width,
		Height:           a.Height,
		ReferenceID:      a.ReferenceID,
		ReferenceType:    a.ReferenceType,
	}
}
