package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	ioutils "github.com/handiism/audio-normalizer/internal/io"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"go.uber.org/zap"
)

const uploadField = "file"

var errMissingFile = errors.New(`multipart field "file" is required`)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(zap.String("request_id", requestID(r.Context())))

	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err, "invalid_request")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, errMissingFile, "invalid_request")
			return
		}
		if err != nil {
			s.writeUploadError(w, err, log)
			return
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		resp, err := s.svc.Handle(r.Context(), rawFileName(part.Header.Get("Content-Disposition")), part)
		part.Close()
		if err != nil {
			s.writeUploadError(w, err, log)
			return
		}
		log.Info("upload normalized", zap.String("file", resp.Filename), zap.String("url", resp.NormalizedFileURL))
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
}

// rawFileName returns the filename parameter as sent. Part.FileName strips
// directories, which would hide a traversal attempt instead of refusing it.
func rawFileName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (s *Server) writeUploadError(w http.ResponseWriter, err error, log *zap.Logger) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ioutils.ErrInvalidFileName):
		s.writeError(w, http.StatusBadRequest, err, "invalid_request")
	case errors.As(err, &maxErr):
		s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", maxErr.Limit), "too_large")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("upload timed out", zap.Error(err))
		s.writeError(w, http.StatusGatewayTimeout, err, "timeout")
	default:
		log.Error("upload failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err, normalize.Kind(err))
	}
}

func (s *Server) handleNormalized(w http.ResponseWriter, r *http.Request) {
	f, info, err := s.svc.Open(r.PathValue("filename"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.writeError(w, http.StatusNotFound, ErrNotFound, "not_found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err, "internal")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error, kind string) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}
