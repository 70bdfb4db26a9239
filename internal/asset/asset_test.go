package asset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"image", KindImage},
		{"RAW", KindRaw},
		{" video ", KindVideo},
		{"auto", KindAuto},
		{"", KindAuto},
		{"pdf", KindAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseKind(tt.in), "ParseKind(%q)", tt.in)
	}
}

func TestDisabled_AlwaysFails(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), strings.NewReader("x"), FileInfo{Name: "a.png"}, KindImage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUploadFailed))
}

// ---- cloudinary ----

type fakeCloudinary struct {
	gotParams uploader.UploadParams
	gotBody   []byte
	result    *uploader.UploadResult
	err       error
}

func (f *fakeCloudinary) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.gotParams = params
	if r, ok := file.(io.Reader); ok {
		f.gotBody, _ = io.ReadAll(r)
	}
	return f.result, f.err
}

func TestCloudinary_UploadPassesFolderAndKind(t *testing.T) {
	fake := &fakeCloudinary{result: &uploader.UploadResult{
		SecureURL:    "https://res.cloudinary.com/demo/image/upload/v1/portfolio/abc.png",
		PublicID:     "portfolio/abc",
		Format:       "png",
		ResourceType: "image",
		Bytes:        4,
	}}
	c := newCloudinary(fake, "", discardLogger())

	res, err := c.Upload(context.Background(), bytes.NewReader([]byte("data")), FileInfo{Name: "me.png"}, KindImage)
	require.NoError(t, err)

	assert.Equal(t, "portfolio", fake.gotParams.Folder)
	assert.Equal(t, "image", fake.gotParams.ResourceType)
	assert.Equal(t, []byte("data"), fake.gotBody, "bytes must be forwarded unchanged")

	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/portfolio/abc.png", res.SecureURL)
	assert.Equal(t, "portfolio/abc", res.PublicID)
	assert.Equal(t, int64(4), res.Bytes)
	assert.Equal(t, "me.png", res.OriginalFilename)
}

func TestCloudinary_TransportError(t *testing.T) {
	fake := &fakeCloudinary{err: errors.New("dial tcp: timeout")}
	c := newCloudinary(fake, "cv", discardLogger())

	_, err := c.Upload(context.Background(), strings.NewReader("x"), FileInfo{Name: "cv.pdf"}, KindRaw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUploadFailed))
	assert.Equal(t, "cv", fake.gotParams.Folder)
}

func TestCloudinary_APIErrorInResult(t *testing.T) {
	fake := &fakeCloudinary{result: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid api_key"}}}
	c := newCloudinary(fake, "", discardLogger())

	_, err := c.Upload(context.Background(), strings.NewReader("x"), FileInfo{Name: "a.png"}, KindImage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUploadFailed))
}

func TestCloudinary_NilFile(t *testing.T) {
	c := newCloudinary(&fakeCloudinary{}, "", discardLogger())

	_, err := c.Upload(context.Background(), nil, FileInfo{}, KindAuto)
	require.Error(t, err)
	assert.Equal(t, "No file provided", err.Error())
}

// ---- minio ----

type fakePutter struct {
	bucket string
	key    string
	size   int64
	opts   minio.PutObjectOptions
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket, f.key, f.size, f.opts = bucket, key, size, opts
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	n, _ := io.Copy(io.Discard, r)
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: n}, nil
}

func newTestMinIO(p objectPutter) *MinIO {
	m := newMinIO(p, "assets", "https://cdn.example.com/assets/", "", discardLogger())
	m.newKey = func() string { return "fixed-uuid" }
	return m
}

func TestMinIO_UploadKeyAndURL(t *testing.T) {
	fake := &fakePutter{}
	m := newTestMinIO(fake)

	res, err := m.Upload(context.Background(), strings.NewReader("%PDF-1.4"),
		FileInfo{Name: "CV_Final.PDF", Size: 8, ContentType: "application/pdf"}, KindRaw)
	require.NoError(t, err)

	assert.Equal(t, "assets", fake.bucket)
	assert.Equal(t, "portfolio/raw/fixed-uuid.pdf", fake.key)
	assert.Equal(t, int64(8), fake.size)
	assert.Equal(t, "application/pdf", fake.opts.ContentType)

	assert.Equal(t, "https://cdn.example.com/assets/portfolio/raw/fixed-uuid.pdf", res.SecureURL)
	assert.Equal(t, "portfolio/raw/fixed-uuid", res.PublicID)
	assert.Equal(t, "pdf", res.Format)
	assert.Equal(t, "raw", res.ResourceType)
	assert.Equal(t, int64(8), res.Bytes)
	assert.Equal(t, "CV_Final", res.OriginalFilename)
}

func TestMinIO_AutoKindUsesContentType(t *testing.T) {
	fake := &fakePutter{}
	m := newTestMinIO(fake)

	res, err := m.Upload(context.Background(), strings.NewReader("png"),
		FileInfo{Name: "me.png", ContentType: "image/png"}, KindAuto)
	require.NoError(t, err)

	assert.Equal(t, "image", res.ResourceType)
	assert.Equal(t, "portfolio/image/fixed-uuid.png", fake.key)
	assert.Equal(t, int64(-1), fake.size, "unknown size streams with -1")
}

func TestMinIO_PutFailure(t *testing.T) {
	fake := &fakePutter{err: errors.New("access denied")}
	m := newTestMinIO(fake)

	_, err := m.Upload(context.Background(), strings.NewReader("x"), FileInfo{Name: "a.jpg"}, KindImage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUploadFailed))
	assert.Equal(t, "Upload failed", err.Error())
}
