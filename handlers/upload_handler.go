package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/services"
)

// Bytes a multipart envelope may add on top of the file itself.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploadService *services.UploadService
	maxBytes      int64
}

func NewUploadHandler(uploadService *services.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

type uploadForm struct {
	ownerID     string
	file        multipart.File
	filename    string
	size        int64
	contentType string
}

// readForm enforces the size limit and pulls out the "file" and "userId" fields.
func (h *UploadHandler) readForm(w http.ResponseWriter, r *http.Request) (*uploadForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return nil, false
		}
		respondWithError(w, http.StatusBadRequest, "Expected a multipart form")
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Form field 'file' is required")
		return nil, false
	}
	if header.Size > h.maxBytes {
		file.Close()
		respondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return nil, false
	}

	return &uploadForm{
		ownerID:     r.FormValue("userId"),
		file:        file,
		filename:    header.Filename,
		size:        header.Size,
		contentType: header.Header.Get("Content-Type"),
	}, true
}

// POST /api/upload/profile-photo
func (h *UploadHandler) ProfilePhoto(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer form.file.Close()

	resp, err := h.uploadService.UploadProfilePhoto(r.Context(), sess, form.ownerID, form.file, form.size, form.contentType)
	if err != nil {
		logging.WithUser(sess.UserID.String()).WithError(err).Warn("Upload: profile photo rejected")
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// POST /api/upload/post-media
func (h *UploadHandler) PostMedia(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer form.file.Close()

	resp, err := h.uploadService.UploadPostMedia(r.Context(), sess, form.ownerID, form.filename, form.file, form.size, form.contentType)
	if err != nil {
		logging.WithUser(sess.UserID.String()).WithError(err).Warn("Upload: post media rejected")
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
