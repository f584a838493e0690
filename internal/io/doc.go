// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Validating client supplied file names
//   - Staged writes that rename into place
//   - Directory creation
//   - Cover art resizing and format conversion
//
// # File Names
//
// ValidateFileName rejects anything that is not a single plain path
// element, which keeps uploads inside their directory:
//
//	name, err := ioutils.ValidateFileName(header.Filename)
//	if errors.Is(err, ioutils.ErrInvalidFileName) {
//	    // 400 Bad Request
//	}
//
// # File Operations
//
//	// Stream a body to disk, visible only once complete
//	n, err := ioutils.WriteStream(ctx, "/uploads/song.mp3", body)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Image Processing
//
// The ImageService handles cover art manipulation:
//
//	svc := ioutils.NewImageService()
//
//	// Resize to fit within 500x500
//	resized, _ := svc.ResizeImage(ctx, imageData, 500, 500)
//
//	// Convert to JPEG
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
