package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chat-core/internal/config"
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = errors.New("media storage is not configured")

// Object is a blob to store under Prefix.
type Object struct {
	Prefix      string
	FileName    string
	ContentType string
	Body        []byte
}

// MediaStore persists uploaded media and returns its public URL.
type MediaStore interface {
	Put(ctx context.Context, obj Object) (string, error)
}

// S3Store uploads media through the S3 transfer manager.
type S3Store struct {
	bucket    string
	publicURL string
	uploader  *manager.Uploader
}

// NewMediaStore returns an S3Store when credentials are configured and a disabled store otherwise.
func NewMediaStore(cfg config.Config) MediaStore {
	if !cfg.MediaEnabled() {
		log.Warn().Msg("media storage disabled: S3 credentials not configured")
		return disabledStore{}
	}
	return NewS3Store(cfg)
}

// NewS3Store builds the S3 client with static credentials. A custom endpoint switches to path-style addressing.
func NewS3Store(cfg config.Config) *S3Store {
	awsCfg := aws.Config{
		Region:      cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	log.Info().Str("endpoint", cfg.S3Endpoint).Str("bucket", cfg.S3Bucket).Msg("s3 media storage initialized")
	return &S3Store{
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		uploader:  manager.NewUploader(client),
	}
}

// Put uploads obj under a fresh key and returns the URL clients should use.
func (s *S3Store) Put(ctx context.Context, obj Object) (string, error) {
	key := path.Join(obj.Prefix, uuid.NewString()+path.Ext(obj.FileName))

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Body),
		ContentType: aws.String(obj.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	log.Debug().Str("key", key).Int("bytes", len(obj.Body)).Msg("media uploaded")
	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	return result.Location, nil
}

type disabledStore struct{}

func (disabledStore) Put(context.Context, Object) (string, error) {
	return "", ErrDisabled
}
