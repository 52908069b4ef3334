package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the subset of the S3 client used here.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads exports to {prefix}{entity}/{fileName} in a bucket.
type S3 struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3 builds a client from the default AWS credential chain.
func NewS3(ctx context.Context, bucket, region, prefix string) (*S3, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3{client: s3.NewFromConfig(awsCfg), bucket: bucket, prefix: prefix}, nil
}

// Key is the object key for an export.
func (s *S3) Key(entity, fileName string) string {
	return s.prefix + path.Join(entity, path.Base(fileName))
}

// Put uploads the file and returns its s3:// URI.
func (s *S3) Put(ctx context.Context, entity, fileName, contentType string, data []byte) (string, error) {
	key := s.Key(entity, fileName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(fileName))),
		Metadata: map[string]string{
			"entity":       entity,
			"content-size": strconv.Itoa(len(data)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
