package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	sc "github.com/dmitrijs2005/pixelstudio/internal/server/config"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/dmitrijs2005/pixelstudio/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

// ImageService manages image records of the authenticated user and hands
// out presigned media-store URLs for them.
type ImageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewImageService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, l logging.Logger) *ImageService {
	return &ImageService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      l.With("module", "images"),
	}
}

func userKeyPrefix(userID string) string {
	return "users/" + userID + "/"
}

// GetRandomStorageKey returns a fresh object key under the user's prefix.
func GetRandomStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("%s%d/%d/%d/%v", userKeyPrefix(userID), d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ImageService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *ImageService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	c, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(c), nil
}

// PresignUpload reserves a storage key for userID and returns it with a
// presigned PUT URL.
func (s *ImageService) PresignUpload(ctx context.Context, userID, contentType string) (string, string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey(userID)

	in := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(presignClient, ctx, in, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *ImageService) presignGet(ctx context.Context, pc *s3.PresignClient, key string) (string, error) {
	bucket := s.config.S3Bucket

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Create records an uploaded object. Keys outside the user's prefix are
// refused so one user cannot claim another's upload.
func (s *ImageService) Create(ctx context.Context, userID, key string) (*models.Image, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", common.ErrValidation)
	}
	if !strings.HasPrefix(key, userKeyPrefix(userID)) {
		return nil, common.ErrorForbidden
	}

	img, err := s.repomanager.Images(s.db).Create(ctx, &models.Image{UserID: userID, StorageKey: key})
	if err != nil {
		return nil, fmt.Errorf("error creating image: %w", err)
	}
	return img, nil
}

// ListMine returns the user's images, newest first, each with a presigned
// GET URL.
func (s *ImageService) ListMine(ctx context.Context, userID string) ([]*models.Image, error) {
	imgs, err := s.repomanager.Images(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing images: %w", err)
	}
	if len(imgs) == 0 {
		return []*models.Image{}, nil
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		if img.URL, err = s.presignGet(ctx, pc, img.StorageKey); err != nil {
			return nil, err
		}
	}
	return imgs, nil
}

// Delete removes the record and then, best effort, the stored object.
func (s *ImageService) Delete(ctx context.Context, userID, imageID string) error {
	if _, err := uuid.Parse(imageID); err != nil {
		return common.ErrorNotFound
	}

	repo := s.repomanager.Images(s.db)

	img, err := repo.Get(ctx, imageID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error loading image: %w", err)
	}
	if img.UserID != userID {
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, imageID); err != nil {
		return fmt.Errorf("error deleting image: %w", err)
	}

	c, err := s.getS3Client(ctx)
	if err == nil {
		bucket := s.config.S3Bucket
		err = deleteObject(c, ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &img.StorageKey})
	}
	if err != nil {
		s.logger.Warn(ctx, "stored object not removed", "image_id", imageID, "error", err)
	}
	return nil
}
