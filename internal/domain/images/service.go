package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"imageapi/internal/pkg/utils"
	"imageapi/internal/storage"
)

// AnonymousUploader is recorded when an upload carries no uploader.
const AnonymousUploader = "anonymous"

// BlobStore is the part of storage.FileStore the service needs.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, name string) error
}

type UploadInput struct {
	Data             []byte
	ContentType      string // as declared by the client, not sniffed
	OriginalFilename string
	UploadedBy       string
	ReferenceID      string
	ReferenceType    string
}

// ImageData is an open blob plus what a response needs to describe it.
// The caller must close Body.
type ImageData struct {
	Body      io.ReadCloser
	Size      int64
	MediaType string
	Meta      MetaResponse
}

// Service holds every business rule for image assets.
// Flow: validate -> write blob -> decode dimensions + hash -> insert row.
type Service struct {
	repo    Repository
	blobs   BlobStore
	logger  *slog.Logger
	now     func() time.Time
	newName func() string
}

func NewService(repo Repository, blobs BlobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		blobs:   blobs,
		logger:  logger,
		now:     time.Now,
		newName: uuid.NewString,
	}
}

// Upload stores a new image and its metadata row. A failed blob write aborts
// before any row exists; a failed row insert removes the blob again.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*ImageAsset, error) {
	if len(in.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if isBlank(in.ReferenceID) || isBlank(in.ReferenceType) {
		return nil, ErrReferenceRequired
	}
	uploadedBy := in.UploadedBy
	if isBlank(uploadedBy) {
		uploadedBy = AnonymousUploader
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, ErrInvalidContentType
	}

	originalFilename := in.OriginalFilename
	if isBlank(originalFilename) {
		originalFilename = ""
	}

	storedName := s.newName()
	if ext := fileExt(originalFilename); ext != "" {
		storedName += "." + ext
	}

	if err := s.blobs.Put(ctx, storedName, in.Data); err != nil {
		return nil, fmt.Errorf("cannot write file: %w", err)
	}

	width, height := decodeDimensions(in.Data)

	asset := &ImageAsset{
		OriginalFilename: originalFilename,
		StoredFilename:   storedName,
		ContentType:      in.ContentType,
		SizeBytes:        int64(len(in.Data)),
		UploadedBy:       uploadedBy,
		UploadedAt:       s.now().UTC(),
		ChecksumSHA256:   utils.SHA256Hex(in.Data),
		Width:            width,
		Height:           height,
		ReferenceID:      in.ReferenceID,
		ReferenceType:    in.ReferenceType,
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		if delErr := s.blobs.Delete(ctx, storedName); delErr != nil {
			s.logger.Warn("failed to remove blob after insert error", "stored_filename", storedName, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save image record: %w", err)
	}

	s.logger.Info("image uploaded",
		"image_id", asset.ID,
		"reference_id", asset.ReferenceID,
		"reference_type", asset.ReferenceType,
		"size_bytes", asset.SizeBytes,
	)
	return asset, nil
}

func (s *Service) GetMeta(ctx context.Context, id int64) (MetaResponse, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MetaResponse{}, err
	}
	return toMeta(a), nil
}

func (s *Service) GetMetaByReference(ctx context.Context, referenceID, referenceType string) (MetaResponse, error) {
	a, err := s.latestByReference(ctx, referenceID, referenceType)
	if err != nil {
		return MetaResponse{}, err
	}
	return toMeta(a), nil
}

// GetImageData opens the blob of image id. A missing row and a missing blob
// both come back as ErrImageNotFound.
func (s *Service) GetImageData(ctx context.Context, id int64) (*ImageData, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, a)
}

// GetByReference opens the blob of the latest image for the reference pair.
func (s *Service) GetByReference(ctx context.Context, referenceID, referenceType string) (*ImageData, error) {
	a, err := s.latestByReference(ctx, referenceID, referenceType)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, a)
}

func (s *Service) GetMediaType(ctx context.Context, id int64) (string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return ParseMediaType(a.ContentType), nil
}

func (s *Service) GetMediaTypeByReference(ctx context.Context, referenceID, referenceType string) (string, error) {
	a, err := s.latestByReference(ctx, referenceID, referenceType)
	if err != nil {
		return "", err
	}
	return ParseMediaType(a.ContentType), nil
}

func (s *Service) ListAllMeta(ctx context.Context) ([]MetaResponse, error) {
	assets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MetaResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toMeta(a))
	}
	return out, nil
}

// UpdateMeta overwrites uploadedBy and/or originalFilename with their trimmed
// values. Missing or blank fields are left as they are.
func (s *Service) UpdateMeta(ctx context.Context, id int64, req UpdateMetaRequest) (MetaResponse, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MetaResponse{}, err
	}

	if req.UploadedBy != nil && !isBlank(*req.UploadedBy) {
		a.UploadedBy = strings.TrimSpace(*req.UploadedBy)
	}
	if req.OriginalFilename != nil && !isBlank(*req.OriginalFilename) {
		a.OriginalFilename = strings.TrimSpace(*req.OriginalFilename)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return MetaResponse{}, err
	}
	return toMeta(a), nil
}

// Delete removes the blob (best effort) and then the metadata row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, a.StoredFilename); err != nil {
		s.logger.Warn("failed to delete blob", "image_id", id, "stored_filename", a.StoredFilename, "error", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}
	s.logger.Info("image deleted", "image_id", id)
	return nil
}

func (s *Service) latestByReference(ctx context.Context, referenceID, referenceType string) (*ImageAsset, error) {
	// nothing can be stored under a blank reference
	if isBlank(referenceID) || isBlank(referenceType) {
		return nil, ErrImageNotFound
	}
	return s.repo.GetLatestByReference(ctx, referenceID, referenceType)
}

func (s *Service) open(ctx context.Context, a *ImageAsset) (*ImageData, error) {
	body, size, err := s.blobs.Open(ctx, a.StoredFilename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: image %d", ErrBlobMissing, a.ID)
		}
		return nil, err
	}
	return &ImageData{
		Body:      body,
		Size:      size,
		MediaType: ParseMediaType(a.ContentType),
		Meta:      toMeta(a),
	}, nil
}

// fileExt returns what follows the last dot of name, without the dot.
// An extension holding a path separator is dropped so stored names stay flat.
func fileExt(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot == -1 {
		return ""
	}
	ext := name[dot+1:]
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
