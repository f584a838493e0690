// Package http provides a client for the upload server.
//
// The Client in this package handles:
//   - Streaming multipart uploads to POST /upload/
//   - Downloads of normalized files with progress tracking
//   - Mapping of JSON error bodies to *APIError
//
// # Basic Usage
//
//	client := http.NewClient("http://localhost:8000")
//
//	resp, err := client.Upload(ctx, "song.mp3")
//	if err != nil {
//	    return err
//	}
//	err = client.DownloadFile(ctx, resp.NormalizedFileURL, "normalized/song.mp3", nil)
//
// # Errors
//
// Non-2xx answers become *APIError, carrying the status code and the
// server's error kind ("decode_failure", "not_found", ...).
package http
