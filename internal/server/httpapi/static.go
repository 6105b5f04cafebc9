package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/chatassist/internal/server/uploads"
)

// uploadedFiles serves stored uploads from dir. The Content-Type comes from
// the extension the upload store assigned, never from sniffing, and only
// images are allowed to render inline. Directory listings are not served.
func uploadedFiles(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			writeErrorMessage(w, http.StatusNotFound, "Not found")
			return
		}

		ct := uploads.ServedType(r.URL.Path)
		h := w.Header()
		h.Set("Content-Type", ct)
		h.Set("X-Content-Type-Options", "nosniff")
		if !strings.HasPrefix(ct, "image/") {
			h.Set("Content-Disposition", "attachment")
		}
		files.ServeHTTP(w, r)
	})
}
