package media_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/svc/media"
	svcs3 "github.com/NAKUL-XD/BitChat/internal/svc/s3"
	"github.com/seventv/common/errors"
	"github.com/stretchr/testify/require"
)

// pngHead is enough of a PNG file for type detection.
var pngHead = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(p, data, 0o600))

	return p
}

func setup(t *testing.T) (media.Host, *svcs3.MockInstance) {
	t.Helper()

	mock, err := svcs3.NewMock(context.Background(), map[string]map[string][]byte{
		"media": {},
	})
	require.NoError(t, err)

	return media.New(media.Options{Uploader: mock, Bucket: "media", Namespace: "chat", MaxSize: 1024}), mock
}

func TestUploadImage(t *testing.T) {
	h, mock := setup(t)
	p := writeTemp(t, pngHead)

	up, err := h.Upload(context.Background(), p, "")
	require.NoError(t, err)
	require.Equal(t, structures.ContentTypeImage, up.ContentType)
	require.Equal(t, "image/png", up.MIME)
	require.True(t, strings.HasPrefix(up.Key, "chat/media/"))
	require.True(t, strings.HasSuffix(up.Key, ".png"))

	data, ok := mock.File("media", up.Key)
	require.True(t, ok)
	require.Equal(t, pngHead, data)

	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err), "temp file is removed")
}

func TestUploadRejects(t *testing.T) {
	h, mock := setup(t)
	ctx := context.Background()

	p := writeTemp(t, []byte("just some text"))
	_, err := h.Upload(ctx, p, "")
	require.True(t, errors.Compare(err, errors.ErrInvalidRequest()), "unknown type")

	_, statErr := os.Stat(p)
	require.True(t, os.IsNotExist(statErr), "temp file is removed on failure")

	_, err = h.Upload(ctx, writeTemp(t, pngHead), structures.ContentTypeVideo)
	require.True(t, errors.Compare(err, errors.ErrInvalidRequest()), "hint mismatch")

	_, err = h.Upload(ctx, writeTemp(t, append(pngHead, make([]byte, 2048)...)), "")
	require.True(t, errors.Compare(err, errors.ErrInvalidRequest()), "too large")

	mock.SetConnected(false)
	_, err = h.Upload(ctx, writeTemp(t, pngHead), "")
	require.True(t, errors.Compare(err, errors.ErrInternalServerError()), "storage down")
}
