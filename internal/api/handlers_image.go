package api

import (
	"net/http"

	respond "github.com/campuslostfound/lostfound/internal/api/respond"
	"github.com/campuslostfound/lostfound/internal/imagestore"
)

// multipart framing allowance on top of the image itself
const uploadOverhead = 1 << 20

type ImageHandler struct {
	uploader *imagestore.Uploader
}

func NewImageHandler(u *imagestore.Uploader) *ImageHandler {
	return &ImageHandler{uploader: u}
}

// UploadImage POST /api/images (multipart field "file")
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imagestore.MaxUploadBytes+uploadOverhead)
	if err := r.ParseMultipartForm(imagestore.MaxUploadBytes); err != nil {
		respond.WriteBadRequest(w, "expected multipart form with a file under 5MB")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respond.WriteBadRequest(w, "missing file")
		return
	}
	defer func() { _ = file.Close() }()

	ref, err := h.uploader.Upload(r.Context(), actorID(r), file)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"imageRef": ref})
}
