package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/foodgram/backend/config"
)

var ErrInvalidImage = errors.New("invalid base64 image")

// MediaStore persists uploaded media (avatars, recipe images) and
// returns a public URL for the stored object.
type MediaStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// LocalMediaStore writes media files under a directory served by the
// application, mirroring a classic MEDIA_ROOT layout.
type LocalMediaStore struct {
	root    string
	baseURL string
}

func NewLocalMediaStore(root, baseURL string) *LocalMediaStore {
	return &LocalMediaStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalMediaStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/media/%s", s.baseURL, key), nil
}

// S3MediaStore uploads media to an object-store bucket.
type S3MediaStore struct {
	s3 *config.S3Config
}

func NewS3MediaStore(s3 *config.S3Config) *S3MediaStore {
	return &S3MediaStore{s3: s3}
}

func (s *S3MediaStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	return s.s3.Upload(ctx, key, contentType, data)
}

// NewMediaStore builds the store selected by the configuration.
func NewMediaStore(ctx context.Context, cfg *config.Config) (MediaStore, error) {
	switch cfg.MediaBackend {
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := s3cfg.SetupBucketPolicy(ctx); err != nil {
			log.Printf("Could not apply bucket policy: %v", err)
		}
		return NewS3MediaStore(s3cfg), nil
	default:
		return NewLocalMediaStore(cfg.MediaDir, cfg.ExternalURL), nil
	}
}

// DecodeBase64Image parses a "data:image/<ext>;base64,<payload>" URI
// and returns the raw bytes, the content type and a generated object
// key ending in the image extension.
func DecodeBase64Image(prefix, dataURI string) (data []byte, contentType, key string, err error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return nil, "", "", ErrInvalidImage
	}

	meta, payload, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return nil, "", "", ErrInvalidImage
	}

	contentType = strings.TrimPrefix(meta, "data:")
	ext := strings.TrimPrefix(contentType, "image/")
	if ext == "" || strings.ContainsAny(ext, "/\\") {
		return nil, "", "", ErrInvalidImage
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", "", ErrInvalidImage
	}

	key = fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext)
	return data, contentType, key, nil
}
