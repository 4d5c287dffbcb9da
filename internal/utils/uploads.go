package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Upload failure cases.
var (
	ErrFileTooLarge       = fmt.Errorf("file size exceeds limit")
	ErrInvalidContentType = fmt.Errorf("invalid content type")
	ErrInvalidExtension   = fmt.Errorf("invalid file extension")
	ErrMissingCredentials = fmt.Errorf("cloudinary credentials are missing")
	ErrUploadFailed       = fmt.Errorf("failed to upload file")
)

// Creation photos and scan shots are the only uploads; everything
// else is rejected.
var allowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

// UploadConfig holds configuration for the image upload service.
type UploadConfig struct {
	CloudName     string
	APIKey        string
	APISecret     string
	Folder        string
	MaxFileSize   int64
	UploadTimeout time.Duration
	MaxRetries    int
}

// UploadResult contains the result of an image upload.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Format   string `json:"format"`
	Size     int    `json:"size"`
}

// ImageUploader stores creation and scan images on Cloudinary.
type ImageUploader struct {
	client *cloudinary.Cloudinary
	config UploadConfig
	logger *zap.Logger
}

// NewImageUploader creates an uploader from config. Missing
// credentials are an error so the caller can disable the feature.
func NewImageUploader(config UploadConfig, logger *zap.Logger) (*ImageUploader, error) {
	if config.CloudName == "" || config.APIKey == "" || config.APISecret == "" {
		return nil, ErrMissingCredentials
	}

	cld, err := cloudinary.NewFromParams(config.CloudName, config.APIKey, config.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	if config.MaxFileSize == 0 {
		config.MaxFileSize = 10 << 20
	}
	if config.UploadTimeout == 0 {
		config.UploadTimeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.Folder == "" {
		config.Folder = "didaur"
	}

	logger.Info("Image uploader initialized", zap.String("folder", config.Folder))

	return &ImageUploader{
		client: cld,
		config: config,
		logger: logger,
	}, nil
}

// Upload validates and stores one image, retrying transient failures.
func (u *ImageUploader) Upload(ctx context.Context, file *multipart.FileHeader) (*UploadResult, error) {
	if file.Size > u.config.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, file.Size, u.config.MaxFileSize)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	defer src.Close()

	contentType, err := sniffContentType(src)
	if err != nil {
		return nil, err
	}

	extensions, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(extensions, ext) {
		return nil, fmt.Errorf("%w: %s for %s", ErrInvalidExtension, ext, contentType)
	}

	ctx, cancel := context.WithTimeout(ctx, u.config.UploadTimeout)
	defer cancel()

	params := uploader.UploadParams{
		Folder:         u.config.Folder,
		UseFilename:    ptrBool(true),
		UniqueFilename: ptrBool(true),
		ResourceType:   "image",
	}

	var result *uploader.UploadResult
	operation := func() error {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(fmt.Errorf("unable to reset file position: %w", err))
		}
		var opErr error
		result, opErr = u.client.Upload.Upload(ctx, src, params)
		return opErr
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = u.config.UploadTimeout / 2
	err = backoff.RetryNotify(
		operation,
		backoff.WithMaxRetries(policy, uint64(u.config.MaxRetries)),
		func(err error, d time.Duration) {
			u.logger.Warn("Upload attempt failed",
				zap.String("filename", file.Filename),
				zap.Error(err),
				zap.Duration("backoff", d),
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrUploadFailed, u.config.MaxRetries, err)
	}

	u.logger.Info("Image uploaded",
		zap.String("filename", file.Filename),
		zap.String("public_id", result.PublicID),
		zap.Int("bytes", result.Bytes),
	)

	return &UploadResult{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Format:   result.Format,
		Size:     result.Bytes,
	}, nil
}

// Delete removes a previously uploaded image.
func (u *ImageUploader) Delete(ctx context.Context, publicID string) error {
	_, err := u.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", publicID, err)
	}
	return nil
}

// sniffContentType reads the magic bytes and rewinds.
func sniffContentType(src multipart.File) (string, error) {
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("unable to read file: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("unable to reset file position: %w", err)
	}
	return http.DetectContentType(buffer[:n]), nil
}

func ptrBool(b bool) *bool {
	return &b
}
