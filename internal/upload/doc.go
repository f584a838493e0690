// Package upload serves single-file normalization over HTTP.
//
// Routes:
//
//	POST /upload/                 multipart field "file"; normalizes synchronously
//	GET  /normalized/{filename}   the normalized bytes, or 404
//	GET  /healthz                 liveness probe
//
// A successful upload answers with
//
//	{"filename": "song.mp3", "normalized_file_url": "/normalized/song.mp3"}
//
// Uploaded names must be a single plain file name. Anything that could
// escape the uploads or normalized directories is refused.
package upload
