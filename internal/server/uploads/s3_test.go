package uploads

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/chatassist/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut, origPresign := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
		presignGetObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.New(s3.Options{Region: cfg.Region})
	}
}

func TestS3Store_Save_Presigned(t *testing.T) {
	stubS3(t)

	var put *s3.PutObjectInput
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		put = in
		b, _ := io.ReadAll(in.Body)
		assert.Equal(t, "data", string(b))
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, *put.Key, *in.Key)
		return &v4.PresignedHTTPRequest{URL: "https://minio.local/signed"}, nil
	}

	st, err := NewS3Store(context.Background(), S3Config{Bucket: "uploads", Region: "us-east-1"})
	require.NoError(t, err)
	st.now = func() time.Time { return time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC) }

	url, err := st.Save(context.Background(), "pic.png", "image/png", 4, strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/signed", url)

	assert.Equal(t, "uploads", *put.Bucket)
	assert.Equal(t, "image/png", *put.ContentType)
	assert.Equal(t, int64(4), *put.ContentLength)
	assert.True(t, strings.HasPrefix(*put.Key, "uploads/2024/03/07/"), *put.Key)
	assert.True(t, strings.HasSuffix(*put.Key, "-pic.png"), *put.Key)
}

func TestS3Store_Save_PublicURL(t *testing.T) {
	stubS3(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		t.Fatal("presign must not be called when a public URL is configured")
		return nil, nil
	}

	st, err := NewS3Store(context.Background(), S3Config{Bucket: "b", PublicURL: "https://cdn.example.com/"})
	require.NoError(t, err)

	url, err := st.Save(context.Background(), "a.txt", "text/plain", 1, strings.NewReader("a"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/uploads/"), url)
}

func TestS3Store_Save_Errors(t *testing.T) {
	stubS3(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("bucket gone")
	}

	st, err := NewS3Store(context.Background(), S3Config{Bucket: "b"})
	require.NoError(t, err)

	_, err = st.Save(context.Background(), "a.txt", "text/plain", 1, strings.NewReader("a"))
	require.ErrorContains(t, err, "bucket gone")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}
	_, err = NewS3Store(context.Background(), S3Config{})
	require.ErrorContains(t, err, "no creds")
}

func TestNewStore(t *testing.T) {
	stubS3(t)

	cfg := &config.Config{UploadBackend: config.BackendLocal, UploadDir: t.TempDir(), UploadURLPrefix: "/uploads/"}
	st, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, st)

	cfg.UploadBackend = config.BackendS3
	st, err = NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, st)

	cfg.UploadBackend = "ftp"
	_, err = NewStore(context.Background(), cfg)
	require.Error(t, err)
}
