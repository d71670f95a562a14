package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 知识库原始文件的落盘后端，兼容 MinIO 等 S3 协议实现。
type S3 struct {
	Endpoint  string
	Region    string
	Bucket    string
	ak        string
	sk        string
	pathStyle bool
	cli       *s3.Client
}

type Option func(*S3)

// WithPathStyle MinIO 等自建网关需要 endpoint/bucket 形式的路径样式 URL。
func WithPathStyle(enabled bool) Option {
	return func(s *S3) {
		s.pathStyle = enabled
	}
}

func NewS3Client(endpoint, region, bucket, ak, sk string, opts ...Option) *S3 {
	cli := &S3{
		Endpoint: endpoint,
		Region:   region,
		Bucket:   bucket,
		ak:       ak,
		sk:       sk,
	}
	for _, opt := range opts {
		opt(cli)
	}

	if err := cli.setup(context.Background()); err != nil {
		panic(err)
	}

	return cli
}

func (s *S3) setup(ctx context.Context) error {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}),
		config.WithRegion(s.Region),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           s.Endpoint,
				SigningRegion: s.Region,
			}, nil
		})))
	if err != nil {
		return err
	}

	s.cli = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.pathStyle
	})
	return nil
}

type GetObjectResult struct {
	File     []byte
	FileType string
}

func (s *S3) GetObject(ctx context.Context, key string) (*GetObjectResult, error) {
	key = strings.TrimPrefix(key, "/")

	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	fileContent, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	fr := bytes.NewReader(fileContent)
	buffer := make([]byte, 512)
	if _, err = fr.Read(buffer); err != nil && err != io.EOF {
		return nil, fmt.Errorf("Error reading file: %w", err)
	}

	return &GetObjectResult{
		File:     fileContent,
		FileType: http.DetectContentType(buffer),
	}, nil
}

// GenGetObjectPreSignURL 生成 5 分钟有效的下载链接。
func (s *S3) GenGetObjectPreSignURL(filePath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	presignClient := s3.NewPresignClient(s.cli)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(filePath, "/")),
	}, s3.WithPresignExpires(time.Minute*5))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *S3) Upload(ctx context.Context, fullPath string, body io.Reader) error {
	uploader := manager.NewUploader(s.cli)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(fullPath, "/")),
		Body:   body,
	})
	return err
}

func (s *S3) Delete(ctx context.Context, fullPath string) error {
	_, err := s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(fullPath, "/")),
	})
	return err
}
