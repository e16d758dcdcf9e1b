package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// objectStore is the part of *minio.Client the sink uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioSink uploads results to a bucket.
type MinioSink struct {
	client objectStore
	bucket string
	prefix string
	log    logrus.FieldLogger
}

// NewMinioClient initializes a MinIO client.
func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init: %w", err)
	}
	return client, nil
}

// NewMinioSink returns a sink writing to bucket under prefix. The bucket is
// created if it does not exist.
func NewMinioSink(ctx context.Context, client *minio.Client, bucket, prefix string, log logrus.FieldLogger) (*MinioSink, error) {
	return newMinioSink(ctx, client, bucket, prefix, log)
}

func newMinioSink(ctx context.Context, client objectStore, bucket, prefix string, log logrus.FieldLogger) (*MinioSink, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &MinioSink{client: client, bucket: bucket, prefix: prefix, log: log.WithField("component", "minio")}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		s.log.Infof("created bucket %s", bucket)
	}
	return s, nil
}

// Save uploads data as prefix/name and returns bucket/object.
func (s *MinioSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	object := path.Join(s.prefix, name)
	info, err := s.client.PutObject(ctx, s.bucket, object,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	s.log.Debugf("uploaded %s/%s (%d bytes)", s.bucket, object, info.Size)
	return s.bucket + "/" + object, nil
}
