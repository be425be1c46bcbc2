package services

import (
	"context"
	"fmt"
	"time"

	appconfig "codeloom/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

const avatarUploadTTL = 15 * time.Minute

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// AvatarUpload is handed to the browser, which PUTs the file directly.
type AvatarUpload struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AvatarStorage presigns uploads to an S3 compatible bucket.
type AvatarStorage struct {
	presign   *s3.PresignClient
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewAvatarStorage(ctx context.Context, cfg appconfig.S3Config) (*AvatarStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, errors.Annotate(err, "loading s3 config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = cfg.Endpoint + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &AvatarStorage{
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		now:       time.Now,
	}, nil
}

// PresignAvatarUpload returns a PUT URL for avatars/<userID>/<uuid>.<ext>.
func (s *AvatarStorage) PresignAvatarUpload(ctx context.Context, userID uint, contentType string) (*AvatarUpload, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, invalidf("unsupported image type %q", contentType)
	}
	key := fmt.Sprintf("avatars/%d/%s.%s", userID, uuid.NewString(), ext)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(avatarUploadTTL))
	if err != nil {
		return nil, errors.Annotate(err, "presigning avatar upload")
	}

	return &AvatarUpload{
		UploadURL: req.URL,
		PublicURL: s.publicURL + "/" + key,
		Key:       key,
		ExpiresAt: s.now().Add(avatarUploadTTL).UTC(),
	}, nil
}
