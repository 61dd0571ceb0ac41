package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/http/response"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerFileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listVaultFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/vaults/{vaultID}/files",
		Summary:     "List vault files",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListVaultFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSpaceFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/files",
		Summary:     "List space files",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSpaceFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFile",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/{fileID}",
		Summary:     "Get file metadata",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFile",
		Method:      http.MethodDelete,
		Path:        "/api/v1/files/{fileID}",
		Summary:     "Delete file",
		Description: "Deletes a file and its blob. Allowed for the uploader, the vault owner, or a space owner/admin.",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteFile)
}

// === DTOs ===

// FilePathInput identifies a file by path parameter.
type FilePathInput struct {
	FileID string `path:"fileID" doc:"File ID"`
}

// FileOutput wraps a single file for Huma.
type FileOutput struct {
	Body *domain.File
}

// FileListOutput wraps a file list for Huma.
type FileListOutput struct {
	Body []*domain.File
}

// === Huma handlers ===

func (s *Server) handleListVaultFiles(ctx context.Context, input *VaultPathInput) (*FileListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	files, err := s.services.File.ListVaultFiles(ctx, userID, input.VaultID)
	if err != nil {
		return nil, err
	}

	return &FileListOutput{Body: files}, nil
}

func (s *Server) handleListSpaceFiles(ctx context.Context, input *SpacePathInput) (*FileListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	files, err := s.services.File.ListSpaceFiles(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &FileListOutput{Body: files}, nil
}

func (s *Server) handleGetFile(ctx context.Context, input *FilePathInput) (*FileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	file, err := s.services.File.GetFile(ctx, userID, input.FileID)
	if err != nil {
		return nil, err
	}

	return &FileOutput{Body: file}, nil
}

func (s *Server) handleDeleteFile(ctx context.Context, input *FilePathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.File.DeleteFile(ctx, userID, input.FileID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "File deleted"}}, nil
}

// === chi handlers ===
// Uploads are multipart forms and downloads are raw blob streams, so
// these bypass Huma and write to the ResponseWriter directly.

func (s *Server) handleUploadVaultFile(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, func(ctx context.Context, userID string, req service.UploadRequest) (*domain.File, error) {
		return s.services.File.UploadVaultFile(ctx, userID, chi.URLParam(r, "vaultID"), req)
	})
}

func (s *Server) handleUploadSpaceFile(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, func(ctx context.Context, userID string, req service.UploadRequest) (*domain.File, error) {
		return s.services.File.UploadSpaceFile(ctx, userID, chi.URLParam(r, "spaceID"), req)
	})
}

func (s *Server) handleUpload(
	w http.ResponseWriter,
	r *http.Request,
	store func(ctx context.Context, userID string, req service.UploadRequest) (*domain.File, error),
) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	// Cap the request body itself, with one extra MB of form overhead
	// beyond the file limit. Without this an oversized body is read in
	// full before the size check can reject it. The service re-checks
	// the exact size and owns the rejection message.
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)

	if err := r.ParseMultipartForm(MaxUploadSize + 1<<20); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded file", "error", err, "name", header.Filename)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return
	}

	stored, err := store(ctx, userID, service.UploadRequest{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, stored, s.logger)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	fileID := chi.URLParam(r, "fileID")
	file, reader, err := s.services.File.DownloadFile(ctx, userID, fileID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer reader.Close()

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))

	if _, err := io.Copy(w, reader); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.Error("Failed to stream file", "error", err, "file_id", fileID)
	}
}
