package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"imageapi/internal/database"
	"imageapi/internal/logging"
	"imageapi/internal/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:images_test_%s?mode=memory&cache=shared", name)

	db, err := database.Connect(dsn)
	require.NoError(t, err, "failed to open sqlite db")
	require.NoError(t, AutoMigrate(db), "failed to migrate db")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type testEnv struct {
	db    *gorm.DB
	repo  Repository
	store *storage.FileStore
	svc   *Service
	clock *fakeClock
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "storage"))
	require.NoError(t, err)

	repo := NewRepository(db)
	svc := NewService(repo, store, logging.NewWithWriter(io.Discard, "error"))
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now

	return &testEnv{db: db, repo: repo, store: store, svc: svc, clock: clock}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func validUpload(data []byte) UploadInput {
	return UploadInput{
		Data:             data,
		ContentType:      "image/png",
		OriginalFilename: "hello.png",
		UploadedBy:       "me",
		ReferenceID:      "ref1",
		ReferenceType:    "typeA",
	}
}

// Mock repositories

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, a *ImageAsset) error {
	args := m.Called(ctx, a)
	if args.Error(0) == nil {
		a.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*ImageAsset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImageAsset), args.Error(1)
}

func (m *MockRepository) GetLatestByReference(ctx context.Context, referenceID, referenceType string) (*ImageAsset, error) {
	args := m.Called(ctx, referenceID, referenceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImageAsset), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, a *ImageAsset) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) List(ctx context.Context) ([]*ImageAsset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ImageAsset), args.Error(1)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, name string, data []byte) error {
	return m.Called(ctx, name, data).Error(0)
}

func (m *MockBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockBlobStore) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func newMockedService(repo *MockRepository, blobs *MockBlobStore) *Service {
	svc := NewService(repo, blobs, logging.NewWithWriter(io.Discard, "error"))
	svc.newName = func() string { return "fixed-name" }
	return svc
}
