package s3

import (
	"context"

	"github.com/NAKUL-XD/BitChat/internal/instance"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type Instance struct {
	session  *session.Session
	uploader *s3manager.Uploader
	s3       *s3.S3
}

func New(ctx context.Context, o Options) (instance.S3, error) {
	cfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(o.AccessToken, o.SecretKey, ""),
		Region:           aws.String(o.Region),
		S3ForcePathStyle: aws.Bool(true),
	}

	if o.Endpoint != "" {
		cfg.Endpoint = aws.String(o.Endpoint)
	}

	s, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return &Instance{
		session:  s,
		uploader: s3manager.NewUploader(s),
		s3:       s3.New(s),
	}, nil
}

func (a *Instance) UploadFile(ctx context.Context, opts *s3manager.UploadInput) error {
	_, err := a.uploader.UploadWithContext(ctx, opts)

	return err
}

func (a *Instance) DeleteFile(ctx context.Context, opts *s3.DeleteObjectInput) error {
	_, err := a.s3.DeleteObjectWithContext(ctx, opts)

	return err
}

func (a *Instance) ListBuckets(ctx context.Context) (*s3.ListBucketsOutput, error) {
	return a.s3.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
}
