package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_SizeBoundary(t *testing.T) {
	assert.NoError(t, Validate(FileInfo{Present: true, MIMEType: MIMEPDF, Size: 10 * 1024 * 1024}))

	err := Validate(FileInfo{Present: true, MIMEType: MIMEPDF, Size: 10*1024*1024 + 1})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, FileTooLarge, ve.Code)
}

func TestValidate_Types(t *testing.T) {
	for _, mt := range []string{MIMEPDF, MIMEDoc, MIMEDocx, "Application/PDF", "application/pdf; charset=binary"} {
		assert.NoError(t, Validate(FileInfo{Present: true, MIMEType: mt, Size: 1}), mt)
	}

	// 类型错误优先于大小错误
	assert.ErrorIs(t, Validate(FileInfo{Present: true, MIMEType: "image/png", Size: 1}), ErrInvalidFileType)
	assert.ErrorIs(t, Validate(FileInfo{Present: true, MIMEType: "image/png", Size: 50 * 1024 * 1024}), ErrInvalidFileType)
	assert.ErrorIs(t, Validate(FileInfo{Present: true, MIMEType: "", Size: 1}), ErrInvalidFileType)
}

func TestValidate_NoFile(t *testing.T) {
	err := Validate(FileInfo{})
	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Equal(t, "No file uploaded", err.Error())
	assert.False(t, errors.Is(err, ErrFileTooLarge))
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, MIMEPDF, DetectMIME("cv.PDF", ""))
	assert.Equal(t, MIMEDocx, DetectMIME("cv.docx", "application/octet-stream"))
	assert.Equal(t, MIMEDoc, DetectMIME("cv.doc", ""))
	assert.Equal(t, "image/png", DetectMIME("cv.pdf", "image/png"))
	assert.Equal(t, "", DetectMIME("cv.txt", ""))
}
