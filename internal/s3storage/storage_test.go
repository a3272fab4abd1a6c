package s3storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/docflow/internal/config"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(config.StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Region:    "us-east-1",
		Bucket:    "docflow-test",
	})
	require.NoError(t, err)
	return s
}

// Presigning is computed locally when the region is known, so no server is
// needed.
func TestPresignURLs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	put, err := s.PresignUpload(ctx, "documents/emp-1/doc-1/scan.pdf", 15*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(put)
	require.NoError(t, err)
	assert.Equal(t, "/docflow-test/documents/emp-1/doc-1/scan.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	get, err := s.PresignDownload(ctx, "documents/emp-1/doc-1/scan.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.Contains(get, "X-Amz-Expires=300"))
}

func TestTranslateNotFound(t *testing.T) {
	err := translate("k", minio.ErrorResponse{StatusCode: http.StatusNotFound, Code: "NoSuchKey"})
	assert.ErrorIs(t, err, ErrObjectNotFound)

	err = translate("k", errors.New("connection refused"))
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}
