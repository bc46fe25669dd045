package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	appconfig "time-capsule/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(data))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestUpload_ReturnsPublicURL(t *testing.T) {
	fake := &fakeS3{}
	s := NewWithClient(fake, "us-east-1", "http://cdn.local/")

	url, err := s.Upload(context.Background(), "avatars", "1-abc.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "http://cdn.local/avatars/1-abc.png", url)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "avatars", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.puts[0].ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(fake.puts[0].ContentLength))
	assert.Equal(t, "png-bytes", fake.bodies[0])
}

func TestUpload_NonSeekableBody(t *testing.T) {
	fake := &fakeS3{}
	s := NewWithClient(fake, "eu-west-1", "")

	url, err := s.Upload(context.Background(), "voice", "k.webm", io.NopCloser(strings.NewReader("abc")), "")
	require.NoError(t, err)
	assert.Equal(t, "https://voice.s3.eu-west-1.amazonaws.com/k.webm", url)
	assert.Nil(t, fake.puts[0].ContentType)
	assert.Equal(t, "abc", fake.bodies[0])
}

func TestUpload_Errors(t *testing.T) {
	s := NewWithClient(&fakeS3{}, "r", "")
	_, err := s.Upload(context.Background(), "b", "k", strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrEmptyObject)

	boom := errors.New("boom")
	s = NewWithClient(&fakeS3{err: boom}, "r", "")
	_, err = s.Upload(context.Background(), "b", "k", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Delete(context.Background(), "b", "k"), boom)
}

func TestDelete(t *testing.T) {
	fake := &fakeS3{}
	s := NewWithClient(fake, "r", "")
	require.NoError(t, s.Delete(context.Background(), "avatars", "k"))
	require.Len(t, fake.deletes, 1)
	assert.Equal(t, "k", aws.ToString(fake.deletes[0].Key))
}

func TestObjectKey(t *testing.T) {
	k := ObjectKey("7", "Photo.JPG")
	assert.True(t, strings.HasPrefix(k, "7-"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))
	assert.NotEqual(t, k, ObjectKey("7", "Photo.JPG"))

	assert.NotContains(t, ObjectKey("", "a"), "-.")
}

func TestNew_AppliesEndpointAndPathStyle(t *testing.T) {
	origLoad, origNew := loadAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var opts s3.Options
	loadAWSConfig = func(ctx context.Context, fns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &fakeS3{}
	}

	s, err := New(context.Background(), appconfig.StorageConfig{
		Endpoint:      "http://minio:9000",
		Region:        "us-east-1",
		UsePathStyle:  true,
		PublicBaseURL: "http://minio:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://minio:9000/b/k", s.PublicURL("b", "k"))
}

func TestNew_ConfigError(t *testing.T) {
	origLoad := loadAWSConfig
	t.Cleanup(func() { loadAWSConfig = origLoad })
	loadAWSConfig = func(ctx context.Context, fns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err := New(context.Background(), appconfig.StorageConfig{})
	assert.Error(t, err)
}
