package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Mangesh9326/Job-Platform/internal/constants"
	"github.com/Mangesh9326/Job-Platform/internal/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a resume to the server with a progress bar",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var (
	uploadServer  string
	uploadSession string
	uploadTimeout time.Duration
)

func init() {
	uploadCmd.Flags().StringVarP(&uploadServer, "server", "s", "http://localhost:5000", "Server base URL")
	uploadCmd.Flags().StringVar(&uploadSession, "session", "", "Analysis session id (generated when empty)")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 2*time.Minute, "Request timeout")

	rootCmd.AddCommand(uploadCmd)
}

// countingReader 读取时上报已发送字节数
type countingReader struct {
	r     io.Reader
	sent  int64
	total int64
	on    func(sent, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.on(c.sent, c.total)
	}
	return n, err
}

// progressBar 在终端单行重绘进度
type progressBar struct {
	mu   sync.Mutex
	out  io.Writer
	last int
}

func (b *progressBar) render(s upload.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.Visual == b.last && s.Phase != upload.PhaseComplete {
		return
	}
	b.last = s.Visual
	const width = 40
	filled := s.Visual * width / 100
	fmt.Fprintf(b.out, "\r[%s%s] %3d%% %-18s", strings.Repeat("=", filled), strings.Repeat(" ", width-filled), s.Visual, s.Phase)
}

func buildUploadBody(path, sessionID string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	name := filepath.Base(path)
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, constants.UploadFormField, name))
	h.Set("Content-Type", upload.DetectMIME(name, ""))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("session_id", sessionID); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	// 与服务端相同的前置校验，避免无意义的传输
	if err := upload.Validate(upload.FileInfo{
		Present:  true,
		Name:     info.Name(),
		MIMEType: upload.DetectMIME(info.Name(), ""),
		Size:     info.Size(),
	}); err != nil {
		return err
	}

	sessionID := uploadSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	body, contentType, err := buildUploadBody(path, sessionID)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	c, err := client.NewClient(client.WithDialTimeout(5*time.Second), client.WithClientReadTimeout(uploadTimeout))
	if err != nil {
		return err
	}

	coord := upload.NewCoordinator()
	bar := &progressBar{out: os.Stderr, last: -1}
	coord.OnProgress(bar.render)

	ctx, cancel := context.WithTimeout(cmd.Context(), uploadTimeout)
	defer cancel()

	req := &protocol.Request{}
	resp := &protocol.Response{}
	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(strings.TrimRight(uploadServer, "/") + "/api/v1/upload")
	req.Header.SetContentTypeBytes([]byte(contentType))
	total := int64(body.Len())
	req.SetBodyStream(&countingReader{r: body, total: total, on: coord.Transferred}, int(total))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		coord.Start()
		if err := c.Do(gctx, req, resp); err != nil {
			coord.Fail(err)
			return fmt.Errorf("upload failed: %w", err)
		}
		if resp.StatusCode() != consts.StatusOK {
			var msg struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(resp.Body(), &msg)
			err := fmt.Errorf("server returned %d: %s", resp.StatusCode(), msg.Message)
			coord.Fail(err)
			return err
		}
		coord.ServerResponded()
		return nil
	})
	g.Go(func() error {
		select {
		case <-coord.Done():
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	err = g.Wait()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body(), "", "  "); err != nil {
		out.Write(resp.Body())
	}
	fmt.Fprintf(os.Stderr, "session: %s\n", sessionID)
	fmt.Println(out.String())
	return nil
}
