package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/khdigital94/hdforms/internal/forms"
	"github.com/khdigital94/hdforms/internal/intake"
	"github.com/khdigital94/hdforms/internal/upload"
)

const (
	maxSubmitBody = 2 << 20
	maxUploadBody = upload.MaxSize + 64<<10
	multipartMem  = 4 << 20
)

// parseForm reads urlencoded and multipart bodies alike
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMem)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := parseForm(r); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, intake.MsgPayloadTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, intake.MsgEmptyPayload)
		return
	}

	req := intake.Request{
		FormData:  r.PostForm.Get("formData"),
		ClientIP:  intake.ClientIP(r.Header, r.RemoteAddr, h.TrustProxy),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	}
	if vals, ok := r.PostForm["files"]; ok && len(vals) > 0 {
		req.Files = &vals[0]
	}

	res, err := h.Intake.Submit(r.Context(), req)
	if err != nil {
		writeError(w, intakeStatus(err), intake.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	ip := intake.ClientIP(r.Header, r.RemoteAddr, h.TrustProxy)
	if err := h.Intake.Allow(r.Context(), ip); err != nil {
		writeError(w, intakeStatus(err), intake.UserMessage(err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	in := upload.Incoming{}

	file, header, err := r.FormFile("file")
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		writeError(w, http.StatusRequestEntityTooLarge, intake.UserMessage(upload.ErrTooLarge))
		return
	case err != nil:
		in.Err = err
	default:
		defer file.Close()
		in.Name = header.Filename
		in.Size = header.Size
		in.Body = file
	}

	desc, err := h.Uploads.Save(r.Context(), in)
	if err != nil {
		writeError(w, intakeStatus(err), intake.UserMessage(err))
		return
	}

	h.Intake.RecordUpload(r.Context())
	writeJSON(w, http.StatusOK, desc)
}

func (h *handler) embed(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	postID, _ := strconv.ParseInt(r.URL.Query().Get("post_id"), 10, 64)
	instance, _ := strconv.Atoi(r.URL.Query().Get("instance"))

	markup, err := h.Forms.Render(r.Context(), id, forms.RenderOptions{PostID: postID, Instance: instance})
	if err != nil {
		h.logger.Error("Failed to render form", "form_id", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, markup)
}

// noListing hides directories and dotfiles from the upload file server
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		base := name[strings.LastIndex(name, "/")+1:]
		if base == "" || strings.HasPrefix(base, ".") || base == "index.html" {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func intakeStatus(err error) int {
	switch {
	case errors.Is(err, intake.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, intake.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, intake.ErrProcessing), errors.Is(err, upload.ErrStoreFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
