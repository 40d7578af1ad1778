package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tharun-raj/washtrack-api/utils"
)

func photoFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	require.NotEmpty(t, form.File["photo"])
	return form.File["photo"][0]
}

func TestImageServiceUpload(t *testing.T) {
	s3 := NewMockS3Service()
	svc := NewImageService(s3)

	key, err := svc.UploadImage(photoFileHeader(t, "tear.png", []byte("fake image content")))
	require.NoError(t, err)
	assert.Equal(t, "damage-photos/mock_tear.png", key)
	assert.True(t, s3.FileExists(key))

	url, err := svc.GetImageURL(key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, svc.DeleteImage(key))
	assert.False(t, s3.FileExists(key))
}

func TestImageServiceRejectsInvalidFiles(t *testing.T) {
	svc := NewImageService(NewMockS3Service())

	_, err := svc.UploadImage(photoFileHeader(t, "report.pdf", []byte("not an image")))
	var uploadErr *utils.FileUploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)
}

func TestImageServiceEmptyKeyURL(t *testing.T) {
	svc := NewImageService(NewMockS3Service())

	url, err := svc.GetImageURL("")
	require.NoError(t, err)
	assert.Empty(t, url)
}
