package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/uploads"
)

// multipartOverhead leaves room for boundaries and headers on top of the
// file size limit.
const multipartOverhead = 1 << 20

func (s *HTTPServer) upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErrorMessage(w, http.StatusBadRequest, uploads.MsgTooLarge)
			return
		}
		writeErrorMessage(w, http.StatusBadRequest, uploads.MsgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, uploads.MsgNoFile)
		return
	}
	defer file.Close()

	res, err := s.uploads.Upload(r.Context(), &uploads.File{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Size: header.Size,
		Body: file,
	})
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			writeErrorMessage(w, http.StatusInternalServerError, uploads.MsgUploadError)
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
