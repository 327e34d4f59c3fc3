package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-core/internal/config"
)

func TestS3StorePutUploadsToBucket(t *testing.T) {
	var gotMethod, gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewS3Store(config.Config{
		S3Endpoint:        srv.URL,
		S3Region:          "us-east-1",
		S3Bucket:          "chat-media",
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
		S3PublicURL:       "https://cdn.example.com/",
	})

	url, err := store.Put(context.Background(), Object{
		Prefix:      "messages/5",
		FileName:    "photo.png",
		ContentType: "image/png",
		Body:        []byte("png-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/chat-media/messages/5/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ".png"), gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/messages/5/"), url)
}

func TestNewMediaStoreDisabledWithoutCredentials(t *testing.T) {
	store := NewMediaStore(config.Config{S3Bucket: "chat-media"})

	_, err := store.Put(context.Background(), Object{Body: []byte("x")})
	require.ErrorIs(t, err, ErrDisabled)
}
