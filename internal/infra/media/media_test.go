package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngFile() File {
	return File{Name: "dress.PNG", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
}

// =====================
// Cloudinary
// =====================

func TestCloudinaryHost_Upload_Image(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "dress.PNG", hdr.Filename)

		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/dress.png"}`))
	}))
	defer srv.Close()

	res, err := NewCloudinaryHost(srv.URL, "demo", "unsigned").Upload(context.Background(), pngFile())
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/dress.png", res.URL)
	assert.False(t, res.Fallback)
}

// 動画はvideoリソースへ
func TestCloudinaryHost_Upload_Video(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn/v.mp4"}`))
	}))
	defer srv.Close()

	_, err := NewCloudinaryHost(srv.URL, "demo", "unsigned").Upload(context.Background(), File{
		Name: "clip.mp4", ContentType: "video/mp4", Data: []byte("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1_1/demo/video/upload", gotPath)
}

func TestCloudinaryHost_Upload_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := NewCloudinaryHost(srv.URL, "demo", "nope").Upload(context.Background(), pngFile())
	assert.ErrorContains(t, err, "Upload preset not found")
}

func TestCloudinaryHost_Upload_NotConfigured(t *testing.T) {
	_, err := NewCloudinaryHost("http://unused", "", "").Upload(context.Background(), pngFile())
	assert.ErrorContains(t, err, "not configured")

	_, err = NewCloudinaryHost("http://unused", "demo", "p").Upload(context.Background(), File{Name: "a.png"})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

// =====================
// S3
// =====================

type fakeS3 struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Host_Upload(t *testing.T) {
	fake := &fakeS3{}
	h := newS3Host(fake, "shop-media", "https://cdn.example.com/")

	res, err := h.Upload(context.Background(), pngFile())
	require.NoError(t, err)

	key := aws.ToString(fake.in.Key)
	assert.True(t, strings.HasPrefix(key, "media/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "shop-media", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.in.ContentType))
	assert.Equal(t, "https://cdn.example.com/"+key, res.URL)
}

func TestS3Host_Upload_DefaultContentType(t *testing.T) {
	fake := &fakeS3{}
	_, err := newS3Host(fake, "b", "https://cdn").Upload(context.Background(), File{Name: "blob", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", aws.ToString(fake.in.ContentType))
}

func TestS3Host_Upload_PutFails(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	_, err := newS3Host(fake, "b", "https://cdn").Upload(context.Background(), pngFile())
	assert.ErrorContains(t, err, "s3 put failed")
}

// =====================
// Fallback / PreviewStore
// =====================

type hostFunc func(ctx context.Context, f File) (Result, error)

func (fn hostFunc) Upload(ctx context.Context, f File) (Result, error) { return fn(ctx, f) }

func TestFallbackHost_PrimaryOK(t *testing.T) {
	primary := hostFunc(func(ctx context.Context, f File) (Result, error) {
		return Result{URL: "https://cdn/a.png"}, nil
	})
	store := NewPreviewStore(4)

	res, err := NewFallbackHost(primary, store, zap.NewNop()).Upload(context.Background(), pngFile())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", res.URL)
	assert.Empty(t, store.order)
}

// 失敗してもプレビューURLで返る
func TestFallbackHost_PrimaryFails(t *testing.T) {
	primary := hostFunc(func(ctx context.Context, f File) (Result, error) {
		return Result{}, errors.New("timeout")
	})
	store := NewPreviewStore(4)

	res, err := NewFallbackHost(primary, store, zap.NewNop()).Upload(context.Background(), pngFile())
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	require.True(t, strings.HasPrefix(res.URL, PreviewPathPrefix))

	got, err := store.Get(strings.TrimPrefix(res.URL, PreviewPathPrefix))
	require.NoError(t, err)
	assert.Equal(t, pngFile().Data, got.Data)
}

func TestFallbackHost_EmptyFile(t *testing.T) {
	called := false
	primary := hostFunc(func(ctx context.Context, f File) (Result, error) {
		called = true
		return Result{}, nil
	})
	_, err := NewFallbackHost(primary, NewPreviewStore(1), zap.NewNop()).Upload(context.Background(), File{Name: "x"})
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.False(t, called)
}

func TestPreviewStore_EvictsOldest(t *testing.T) {
	s := NewPreviewStore(2)
	a := s.Put(File{Name: "a"})
	b := s.Put(File{Name: "b"})
	c := s.Put(File{Name: "c"})

	_, err := s.Get(a)
	assert.ErrorIs(t, err, ErrPreviewMissing)

	for _, id := range []string{b, c} {
		_, err := s.Get(id)
		assert.NoError(t, err)
	}
}
