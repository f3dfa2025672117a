package main

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mangesh9326/Job-Platform/internal/upload"
)

func TestBuildUploadBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	body, contentType, err := buildUploadBody(path, "sess-1")
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	assert.Equal(t, []string{"sess-1"}, form.Value["session_id"])
	require.Len(t, form.File["resume"], 1)
	fh := form.File["resume"][0]
	assert.Equal(t, "cv.pdf", fh.Filename)
	assert.Equal(t, upload.MIMEPDF, fh.Header.Get("Content-Type"))
}

func TestCountingReaderDrivesCoordinator(t *testing.T) {
	coord := upload.NewCoordinator()
	data := bytes.Repeat([]byte("x"), 1000)
	r := &countingReader{r: bytes.NewReader(data), total: int64(len(data)), on: coord.Transferred}

	buf := make([]byte, 250)
	_, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 25, coord.Snapshot().Visual)

	_, err = io.Copy(io.Discard, r)
	require.NoError(t, err)
	snap := coord.Snapshot()
	assert.Equal(t, upload.PhaseServerProcessing, snap.Phase)
	assert.Equal(t, upload.TransferCap, snap.Visual)
}

func TestProgressBarRender(t *testing.T) {
	var out bytes.Buffer
	bar := &progressBar{out: &out, last: -1}
	bar.render(upload.Snapshot{Phase: upload.PhaseTransferring, Visual: 50})
	assert.Contains(t, out.String(), " 50%")

	out.Reset()
	bar.render(upload.Snapshot{Phase: upload.PhaseTransferring, Visual: 50})
	assert.Empty(t, out.String(), "相同进度不重绘")
}
