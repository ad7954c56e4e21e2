package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/NAKUL-XD/BitChat/internal/instance"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type MockInstance struct {
	mx        sync.Mutex
	files     map[string]map[string][]byte
	connected bool
}

func NewMock(ctx context.Context, files map[string]map[string][]byte) (*MockInstance, error) {
	mp := map[string]map[string][]byte{}
	for k, v := range files {
		bucket := map[string][]byte{}
		for name, data := range v {
			bucket[name] = data
		}

		mp[k] = bucket
	}

	return &MockInstance{
		files:     mp,
		connected: true,
	}, nil
}

var _ instance.S3 = (*MockInstance)(nil)

func (a *MockInstance) SetConnected(connected bool) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.connected = connected
}

// File returns an uploaded object, for assertions.
func (a *MockInstance) File(bucket, key string) ([]byte, bool) {
	a.mx.Lock()
	defer a.mx.Unlock()

	data, ok := a.files[bucket][key]

	return data, ok
}

func (a *MockInstance) ListBuckets(ctx context.Context) (*s3.ListBucketsOutput, error) {
	a.mx.Lock()
	defer a.mx.Unlock()

	if !a.connected {
		return nil, http.ErrHandlerTimeout
	}

	names := make([]string, 0, len(a.files))
	for k := range a.files {
		names = append(names, k)
	}

	sort.Strings(names)

	resp := &s3.ListBucketsOutput{}
	for _, name := range names {
		resp.Buckets = append(resp.Buckets, &s3.Bucket{
			Name:         aws.String(name),
			CreationDate: aws.Time(time.Now()),
		})
	}

	return resp, nil
}

func (a *MockInstance) UploadFile(ctx context.Context, opts *s3manager.UploadInput) error {
	a.mx.Lock()
	defer a.mx.Unlock()

	if !a.connected {
		return http.ErrHandlerTimeout
	}

	if opts.Bucket == nil {
		return errors.New(s3.ErrCodeNoSuchBucket)
	}

	if opts.Key == nil {
		return errors.New(s3.ErrCodeNoSuchKey)
	}

	data, err := io.ReadAll(opts.Body)
	if err != nil {
		return err
	}

	files, ok := a.files[*opts.Bucket]
	if !ok {
		return errors.New(s3.ErrCodeNoSuchBucket)
	}

	files[*opts.Key] = data

	return nil
}

func (a *MockInstance) DeleteFile(ctx context.Context, opts *s3.DeleteObjectInput) error {
	a.mx.Lock()
	defer a.mx.Unlock()

	if !a.connected {
		return http.ErrHandlerTimeout
	}

	if opts.Bucket == nil {
		return errors.New(s3.ErrCodeNoSuchBucket)
	}

	if opts.Key == nil {
		return errors.New(s3.ErrCodeNoSuchKey)
	}

	files, ok := a.files[*opts.Bucket]
	if !ok {
		return errors.New(s3.ErrCodeNoSuchBucket)
	}

	delete(files, *opts.Key)

	return nil
}
