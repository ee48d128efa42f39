// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package httpserver serves MCP over streamable HTTP next to the upload and
// bookmark endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/bookmark"
	"github.com/sagacient/cute-charts-mcp-server/geocode"
	"github.com/sagacient/cute-charts-mcp-server/scanner"
	"github.com/sagacient/cute-charts-mcp-server/storage"
)

// Server wraps the MCP HTTP server and adds storage and bookmark endpoints.
type Server struct {
	mcpHandler http.Handler
	fileStore  *storage.FileStore
	book       *bookmark.Book
	mux        *http.ServeMux
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates the HTTP server. book may be nil to disable the
// bookmark endpoints.
func NewServer(mcpServer *server.MCPServer, fileStore *storage.FileStore, book *bookmark.Book, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcpHandler: server.NewStreamableHTTPServer(mcpServer),
		fileStore:  fileStore,
		book:       book,
		mux:        http.NewServeMux(),
		logger:     logger,
	}

	s.mux.HandleFunc("/storage/upload", s.handleUpload)
	s.mux.HandleFunc("/storage/list", s.handleList)
	s.mux.HandleFunc("/storage/download/", s.handleDownload)
	s.mux.HandleFunc("/storage/delete/", s.handleDelete)

	if book != nil {
		s.mux.HandleFunc("/bookmarks", s.handleBookmarks)
		s.mux.HandleFunc("/bookmarks/geojson", s.handleGeoJSON)
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Handler returns the combined handler: REST endpoints are compressed, the
// MCP endpoint is passed through untouched so streaming keeps working.
func (s *Server) Handler() http.Handler {
	rest := gzhttp.GzipHandler(s.mux)

	return s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/storage/") ||
			strings.HasPrefix(r.URL.Path, "/bookmarks") ||
			r.URL.Path == "/health" {
			rest.ServeHTTP(w, r)
			return
		}
		s.mcpHandler.ServeHTTP(w, r)
	}))
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server starting",
		zap.String("addr", addr),
		zap.Strings("endpoints", []string{
			"/mcp", "/storage/upload", "/storage/list", "/storage/download/{id}",
			"/storage/delete/{id}", "/bookmarks", "/bookmarks/geojson", "/health",
		}))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Flush keeps server-sent events working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		level := zap.DebugLevel
		if rec.status >= http.StatusInternalServerError {
			level = zap.WarnLevel
		}
		s.logger.Log(level, "HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error":  msg,
		"status": status,
	})
}

// handleUpload stores a multipart upload.
// POST /storage/upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Allow 1MB of form overhead on top of the file limit.
	r.Body = http.MaxBytesReader(w, r.Body, s.fileStore.MaxSize()+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to get file: %v", err))
		return
	}
	defer file.Close()

	info, err := s.fileStore.Upload(r.Context(), header.Filename, file)
	if err != nil {
		var malware *scanner.MalwareError
		switch {
		case errors.As(err, &malware):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "Malware detected",
				"threat": malware.Threat,
				"status": http.StatusUnprocessableEntity,
			})
		case errors.Is(err, scanner.ErrScannerUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Malware scanner unavailable")
		case errors.Is(err, storage.ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, scanner.ErrUnsupportedType),
			errors.Is(err, scanner.ErrBinaryContent),
			errors.Is(err, scanner.ErrInvalidWorkbook):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			s.logger.Error("Failed to store upload", zap.String("name", header.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to store file: %v", err))
		}
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

// handleList returns all live uploads.
// GET /storage/list
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	files := s.fileStore.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// handleDownload streams an upload back.
// GET /storage/download/{id}
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/storage/download/")
	if id == "" {
		http.Error(w, "File ID required", http.StatusBadRequest)
		return
	}

	info, ok := s.fileStore.Get(id)
	if !ok {
		http.Error(w, "File not found or expired", http.StatusNotFound)
		return
	}

	file, err := os.Open(info.Path)
	if err != nil {
		http.Error(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	if strings.HasSuffix(strings.ToLower(info.Name), ".csv") {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	io.Copy(w, file)
}

// handleDelete removes an upload.
// DELETE /storage/delete/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/storage/delete/")
	if id == "" {
		http.Error(w, "File ID required", http.StatusBadRequest)
		return
	}

	if err := s.fileStore.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to delete file: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"id":     id,
	})
}

// handleBookmarks lists (GET) or adds (POST) bookmarks.
// GET|POST /bookmarks
func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.book.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"bookmarks": list,
			"center":    bookmark.Center(list),
			"count":     len(list),
		})

	case http.MethodPost:
		var req bookmark.AddRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, 64*1024))
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
		bm, err := s.book.Add(r.Context(), req)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, bm)
		case errors.Is(err, bookmark.ErrNameRequired), errors.Is(err, bookmark.ErrInvalidCoordinates):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, geocode.ErrNotFound):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("Failed to add bookmark", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGeoJSON returns the bookmarks as a FeatureCollection.
// GET /bookmarks/geojson
func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list, err := s.book.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	json.NewEncoder(w).Encode(bookmark.GeoJSON(list))
}

// handleHealth returns server health status.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"storage_dir": s.fileStore.BaseDir(),
		"upload_ttl":  s.fileStore.TTL().String(),
		"bookmarks":   s.book != nil,
	})
}
