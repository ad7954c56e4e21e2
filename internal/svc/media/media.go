// Package media stores uploaded chat attachments on object storage.
package media

import (
	"context"
	"io"
	"os"
	"path"
	"strings"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/seventv/common/errors"
	"go.uber.org/zap"
)

// sniffLength is how much of a file filetype needs to recognise it.
const sniffLength = 262

var (
	cacheControl = aws.String("public, max-age=15552000")
	aclPublic    = aws.String("public-read")
)

type Uploader interface {
	UploadFile(ctx context.Context, opts *s3manager.UploadInput) error
}

// Upload is a stored attachment.
type Upload struct {
	// Key is the object key, resolved against the public media URL by the modelizer.
	Key         string
	ContentType structures.ContentType
	MIME        string
	Size        int64
}

type Host interface {
	// Upload stores the file at tempPath and removes it afterwards, whether or
	// not the upload succeeded. hint is the content type the client claims.
	Upload(ctx context.Context, tempPath string, hint structures.ContentType) (Upload, error)
}

type Options struct {
	Uploader  Uploader
	Bucket    string
	Namespace string
	MaxSize   int64
}

type host struct {
	uploader  Uploader
	bucket    string
	namespace string
	maxSize   int64
}

func New(opt Options) Host {
	return &host{
		uploader:  opt.Uploader,
		bucket:    opt.Bucket,
		namespace: strings.Trim(opt.Namespace, "/"),
		maxSize:   opt.MaxSize,
	}
}

// KindOf classifies a file head as image or video.
func KindOf(head []byte) (structures.ContentType, string, bool) {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", "", false
	}

	switch {
	case filetype.IsImage(head):
		return structures.ContentTypeImage, kind.MIME.Value, true
	case filetype.IsVideo(head):
		return structures.ContentTypeVideo, kind.MIME.Value, true
	}

	return "", kind.MIME.Value, false
}

func (h *host) Upload(ctx context.Context, tempPath string, hint structures.ContentType) (Upload, error) {
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			zap.S().Warnw("failed to remove temporary upload",
				"path", tempPath,
				"error", err,
			)
		}
	}()

	f, err := os.Open(tempPath)
	if err != nil {
		return Upload{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Upload{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	if h.maxSize > 0 && stat.Size() > h.maxSize {
		return Upload{}, errors.ErrInvalidRequest().SetDetail("File is larger than %d bytes", h.maxSize)
	}

	head := make([]byte, sniffLength)

	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Upload{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	ct, mime, ok := KindOf(head[:n])
	if !ok {
		return Upload{}, errors.ErrInvalidRequest().SetDetail("Unsupported media type")
	}

	if hint.IsMedia() && hint != ct {
		return Upload{}, errors.ErrInvalidRequest().SetDetail("File is not a %s", hint)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Upload{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	ext := ""
	if kind, err := filetype.Match(head[:n]); err == nil {
		ext = kind.Extension
	}

	key := path.Join(h.namespace, "media", uuid.NewString())
	if ext != "" {
		key += "." + ext
	}

	if err := h.uploader.UploadFile(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(h.bucket),
		Key:          aws.String(key),
		Body:         f,
		ACL:          aclPublic,
		ContentType:  aws.String(mime),
		CacheControl: cacheControl,
	}); err != nil {
		zap.S().Errorw("media upload failed",
			"key", key,
			"error", err,
		)

		return Upload{}, errors.ErrInternalServerError().SetDetail("Media upload failed")
	}

	return Upload{
		Key:         key,
		ContentType: ct,
		MIME:        mime,
		Size:        stat.Size(),
	}, nil
}
