package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	appconfig "time-capsule/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrEmptyObject 上传内容为空
var ErrEmptyObject = errors.New("empty object")

// S3API 用到的 S3 客户端方法，便于测试替换
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// 构造函数变量，测试中可替换
var (
	loadAWSConfig         = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Store S3 兼容对象存储
type Store struct {
	client     S3API
	region     string
	publicBase string
}

// New 根据配置创建对象存储
func New(ctx context.Context, cfg appconfig.StorageConfig) (*Store, error) {
	awsCfg, err := loadAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载对象存储配置失败: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg.Region, cfg.PublicBaseURL), nil
}

// NewWithClient 使用已有客户端
func NewWithClient(client S3API, region, publicBase string) *Store {
	return &Store{client: client, region: region, publicBase: strings.TrimRight(publicBase, "/")}
}

// Upload 上传对象并返回公共访问地址
func (s *Store) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	// SDK 计算校验和需要可 Seek 的 body
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("读取上传内容失败: %w", err)
		}
		rs = bytes.NewReader(data)
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return "", fmt.Errorf("读取上传内容失败: %w", err)
	}
	if size == 0 {
		return "", ErrEmptyObject
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("读取上传内容失败: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          rs,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("上传对象失败: %w", err)
	}
	return s.PublicURL(bucket, key), nil
}

// Delete 删除对象
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("删除对象失败: %w", err)
	}
	return nil
}

// PublicURL 对象的公共访问地址
func (s *Store) PublicURL(bucket, key string) string {
	if s.publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBase, bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key)
}

// ObjectKey 生成 <prefix>-<uuid>.<ext> 形式的对象名，扩展名取自原文件名
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if prefix == "" {
		return uuid.NewString() + ext
	}
	return fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext)
}
