package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"
	"github.com/kerstenscheffer/my-arc-sub008/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPhotoAlreadyExists = errors.New("a photo of this type already exists for this date")
	ErrInvalidPhotoType   = errors.New("photo type must be front or side")
)

// PhotoView pairs a photo row with a temporary download URL.
type PhotoView struct {
	Photo   domain.ProgressPhoto `json:"photo"`
	ViewURL string               `json:"viewUrl"`
}

// PhotoService handles progress photo uploads and viewing. Files live in
// object storage; only the object key is stored with the event row.
type PhotoService interface {
	// RequestUploadURL returns a presigned PUT URL and the object key the
	// client must upload to before calling ConfirmUpload.
	RequestUploadURL(ctx context.Context, clientID primitive.ObjectID, photoType domain.PhotoType, contentType string) (uploadURL, objectKey string, err error)
	// ConfirmUpload records the photo row once the client finished the PUT.
	ConfirmUpload(ctx context.Context, clientID primitive.ObjectID, date time.Time, photoType domain.PhotoType, objectKey string) (*domain.ProgressPhoto, error)
	// GetPhotosInRange returns the client's photos with presigned view URLs.
	GetPhotosInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]PhotoView, error)
}

// photoService implements the PhotoService interface.
type photoService struct {
	photoRepo repository.PhotoRepository
	fileStore storage.FileStorage
}

// NewPhotoService creates a new instance of photoService.
func NewPhotoService(photoRepo repository.PhotoRepository, fileStore storage.FileStorage) PhotoService {
	return &photoService{
		photoRepo: photoRepo,
		fileStore: fileStore,
	}
}

// RequestUploadURL presigns a PUT for a fresh object key.
func (s *photoService) RequestUploadURL(ctx context.Context, clientID primitive.ObjectID, photoType domain.PhotoType, contentType string) (string, string, error) {
	if photoType != domain.PhotoFront && photoType != domain.PhotoSide {
		return "", "", ErrInvalidPhotoType
	}
	objectKey := fmt.Sprintf("progress-photos/%s/%s-%s.jpg", clientID.Hex(), photoType, uuid.NewString())
	uploadURL, err := s.fileStore.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// ConfirmUpload inserts the photo row. The unique (clientId, date, type)
// index rejects a second photo of the same angle on the same day; the
// orphaned object is removed so the bucket does not accumulate strays.
func (s *photoService) ConfirmUpload(ctx context.Context, clientID primitive.ObjectID, date time.Time, photoType domain.PhotoType, objectKey string) (*domain.ProgressPhoto, error) {
	if photoType != domain.PhotoFront && photoType != domain.PhotoSide {
		return nil, ErrInvalidPhotoType
	}
	photo := &domain.ProgressPhoto{
		ClientID:  clientID,
		Date:      date.UTC().Truncate(24 * time.Hour),
		Type:      photoType,
		ObjectKey: objectKey,
		Source:    domain.SourceClient,
	}
	id, err := s.photoRepo.Insert(ctx, photo)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if delErr := s.fileStore.DeleteObject(ctx, objectKey); delErr != nil {
				logrus.Warnf("failed to clean up orphaned photo object %q: %v", objectKey, delErr)
			}
			return nil, ErrPhotoAlreadyExists
		}
		return nil, err
	}
	photo.ID = id
	return photo, nil
}

// GetPhotosInRange presigns a view URL per photo. A presign failure for one
// photo skips that photo rather than failing the whole listing.
func (s *photoService) GetPhotosInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]PhotoView, error) {
	photos, err := s.photoRepo.FindInRange(ctx, clientID, from, to)
	if err != nil {
		return nil, err
	}
	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		url, err := s.fileStore.GeneratePresignedDownloadURL(ctx, p.ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			logrus.Warnf("failed to presign view URL for photo %s: %v", p.ID.Hex(), err)
			continue
		}
		views = append(views, PhotoView{Photo: p, ViewURL: url})
	}
	return views, nil
}
