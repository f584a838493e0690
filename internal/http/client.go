package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/audio-normalizer/internal/io"
	"github.com/handiism/audio-normalizer/internal/upload"
	"go.uber.org/multierr"
)

// Client talks to a running upload server.
//
// Client provides:
//   - Multipart uploads streamed from disk
//   - Download of normalized files with progress tracking
//   - Decoding of the server's JSON error bodies into *APIError
//
// Example usage:
//
//	client := NewClient("http://localhost:8000")
//
//	resp, err := client.Upload(ctx, "/music/song.mp3")
//
//	err = client.DownloadFile(ctx, resp.NormalizedFileURL, "/music/out/song.mp3", func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client for the server at baseURL.
//
// Uploads block until the server has normalized the file, so the client
// has no overall timeout; pass a context with a deadline to bound a call.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "audio-normalizer",
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("HTTP %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Upload sends the file at path and waits for the normalized result.
//
// The body is streamed; the file is never held in memory.
//
// Returns *APIError when the server refuses or fails the upload.
func (c *Client) Upload(ctx context.Context, path string) (*upload.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		err = multierr.Append(err, mw.Close())
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out upload.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &out, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// Relative references such as "/normalized/song.mp3" are resolved against
// the client's base URL.
func (c *Client) Get(ctx context.Context, ref string) ([]byte, error) {
	resp, err := c.get(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// DownloadFile downloads ref to destPath with optional progress callback.
//
// The content is streamed to a temporary file next to destPath and renamed
// into place, so a failed download leaves no partial file.
//
// Parameters:
//   - ctx: Context for cancellation
//   - ref: absolute URL or path relative to the base URL
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes)
//
// Example:
//
//	err := client.DownloadFile(ctx, "/normalized/song.mp3", "/music/song.mp3", nil)
func (c *Client) DownloadFile(ctx context.Context, ref, destPath string, onProgress func(written, total int64)) error {
	resp, err := c.get(ctx, ref)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if onProgress != nil {
		// ProgressWriter counts bytes as WriteStream copies them.
		pw := &ProgressWriter{Writer: io.Discard, Total: resp.ContentLength, OnUpdate: onProgress}
		body = io.TeeReader(resp.Body, pw)
	}

	_, err = ioutils.WriteStream(ctx, destPath, body)
	return err
}

func (c *Client) get(ctx context.Context, ref string) (*http.Response, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return ref, nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	var body upload.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Kind = body.Kind
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
