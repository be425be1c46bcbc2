package services

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"codeloom/internal/config"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignAvatarUpload(t *testing.T) {
	storage, err := NewAvatarStorage(context.Background(), config.S3Config{
		Bucket:    "codeloom-avatars",
		Region:    "auto",
		Endpoint:  "https://r2.example.com",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		PublicURL: "https://cdn.codeloom.dev",
	})
	require.NoError(t, err)

	upload, err := storage.PresignAvatarUpload(context.Background(), 42, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.Key, "avatars/42/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Equal(t, "https://cdn.codeloom.dev/"+upload.Key, upload.PublicURL)

	u, err := url.Parse(upload.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "r2.example.com", u.Host)
	assert.Equal(t, "/codeloom-avatars/"+upload.Key, u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, err = storage.PresignAvatarUpload(context.Background(), 42, "application/pdf")
	assert.True(t, errors.Is(err, errors.NotValid))
}
