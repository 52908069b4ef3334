package sink

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndOpen(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	require.NoError(t, err)

	url, err := l.Put(context.Background(), "leads", "leads_export_2024-03-15.csv", "text/csv", []byte("Name\nAnn"))
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/exports/files/leads/leads_export_2024-03-15.csv", url)

	data, err := os.ReadFile(filepath.Join(dir, "leads", "leads_export_2024-03-15.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name\nAnn", string(data))

	p, err := l.Open("leads", "leads_export_2024-03-15.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "leads", "leads_export_2024-03-15.csv"), p)

	_, err = l.Open("leads", "../secrets.txt")
	assert.Error(t, err)
	_, err = l.Open("..", "x.csv")
	assert.Error(t, err)
	_, err = l.Put(context.Background(), "../etc", "x.csv", "text/csv", nil)
	assert.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Put(t *testing.T) {
	fake := &fakePutter{}
	s := &S3{client: fake, bucket: "crm-exports", prefix: "exports/"}

	loc, err := s.Put(context.Background(), "cases", "cases_export_2024-03-15.xlsx", "application/octet-stream", []byte("xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "s3://crm-exports/exports/cases/cases_export_2024-03-15.xlsx", loc)
	assert.Equal(t, "crm-exports", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "exports/cases/cases_export_2024-03-15.xlsx", aws.ToString(fake.input.Key))
	assert.Equal(t, []byte("xlsx"), fake.body)
	assert.Equal(t, "cases", fake.input.Metadata["entity"])

	fake.err = errors.New("AccessDenied")
	_, err = s.Put(context.Background(), "cases", "x.csv", "text/csv", nil)
	assert.ErrorContains(t, err, "failed to upload to S3")
}
