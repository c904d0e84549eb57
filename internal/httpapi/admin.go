package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/khdigital94/hdforms/internal/admin"
	"github.com/khdigital94/hdforms/internal/auth"
	"github.com/khdigital94/hdforms/internal/forms"
	"github.com/khdigital94/hdforms/pkg/models"
)

const (
	submissionsPath = "/admin/submissions"
	formsPath       = "/admin/forms"

	msgInvalidToken = "Sicherheitsprüfung fehlgeschlagen"
	msgNotFound     = "Nicht gefunden"
	msgInternal     = "Interner Fehler"
	msgBadRequest   = "Ungültige Anfrage"
)

type formView struct {
	*models.FormTemplate
	Shortcode string `json:"shortcode"`
}

func newFormView(f *models.FormTemplate) formView {
	return formView{FormTemplate: f, Shortcode: f.Shortcode()}
}

// subject returns the admin the request was authenticated as
func subject(r *http.Request) string {
	if claims := auth.GetUser(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

func (h *handler) verifyToken(w http.ResponseWriter, r *http.Request) bool {
	if !h.CSRF.Verify(r.FormValue("_token"), subject(r)) {
		writeError(w, http.StatusForbidden, msgInvalidToken)
		return false
	}
	return true
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "request_id", RequestID(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func redirect(w http.ResponseWriter, r *http.Request, path string, notFound bool) {
	if notFound {
		path += "?" + url.Values{"notfound": {"1"}}.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (h *handler) adminToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.CSRF.Token(subject(r))
	if err != nil {
		h.internalError(w, r, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// submissions lists submissions or, with ?action=, runs a row action
func (h *handler) submissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if action := q.Get("action"); action != "" {
		if !h.verifyToken(w, r) {
			return
		}
		id, _ := strconv.ParseInt(q.Get("id"), 10, 64)

		var err error
		switch action {
		case "mark_read":
			err = h.Admin.MarkRead(r.Context(), id)
		case "delete":
			_, err = h.Admin.Delete(r.Context(), id)
		default:
			writeError(w, http.StatusBadRequest, "Unbekannte Aktion")
			return
		}

		if err != nil && !errors.Is(err, admin.ErrNotFound) {
			h.internalError(w, r, "Submission action failed", err)
			return
		}
		redirect(w, r, submissionsPath, errors.Is(err, admin.ErrNotFound))
		return
	}

	search := q.Get("s")
	rows, err := h.Admin.List(r.Context(), search)
	if err != nil {
		h.internalError(w, r, "Failed to list submissions", err)
		return
	}
	counts, err := h.Admin.Counts(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to count submissions", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": rows,
		"counts":      counts,
		"search":      search,
		"notfound":    q.Get("notfound") == "1",
	})
}

func (h *handler) submission(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	detail, err := h.Admin.Get(r.Context(), id)
	if errors.Is(err, admin.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, "Failed to load submission", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// formList lists forms or, with ?action=delete, removes one
func (h *handler) formList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if action := q.Get("action"); action != "" {
		if action != "delete" {
			writeError(w, http.StatusBadRequest, "Unbekannte Aktion")
			return
		}
		if !h.verifyToken(w, r) {
			return
		}
		id, _ := strconv.ParseInt(q.Get("id"), 10, 64)
		err := h.Forms.Delete(r.Context(), id)
		if err != nil && !errors.Is(err, forms.ErrNotFound) {
			h.internalError(w, r, "Failed to delete form", err)
			return
		}
		redirect(w, r, formsPath, errors.Is(err, forms.ErrNotFound))
		return
	}

	list, err := h.Forms.List(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to list forms", err)
		return
	}

	views := make([]formView, 0, len(list))
	for _, f := range list {
		views = append(views, newFormView(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forms":    views,
		"notfound": q.Get("notfound") == "1",
	})
}

func (h *handler) formGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	form, err := h.Forms.Get(r.Context(), id)
	if errors.Is(err, forms.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, "Failed to load form", err)
		return
	}
	writeJSON(w, http.StatusOK, newFormView(form))
}

// formSave creates a form, or updates it when id is set
func (h *handler) formSave(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if !h.verifyToken(w, r) {
		return
	}

	id, _ := strconv.ParseInt(r.PostForm.Get("id"), 10, 64)
	title := r.PostForm.Get("form_title")
	code := r.PostForm.Get("form_code")

	var form *models.FormTemplate
	var err error
	if id > 0 {
		form, err = h.Forms.Update(r.Context(), id, title, code)
	} else {
		form, err = h.Forms.Create(r.Context(), title, code)
	}

	switch {
	case errors.Is(err, forms.ErrTitleMissing):
		writeError(w, http.StatusBadRequest, "Titel fehlt")
		return
	case errors.Is(err, forms.ErrNotFound):
		redirect(w, r, formsPath, true)
		return
	case err != nil:
		h.internalError(w, r, "Failed to save form", err)
		return
	}

	http.Redirect(w, r, formsPath+"/"+strconv.FormatInt(form.ID, 10), http.StatusSeeOther)
}

func (h *handler) settingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Admin.EmailSettings(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handler) settingsSave(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if !h.verifyToken(w, r) {
		return
	}

	in := models.EmailSettings{
		Enabled:    r.PostForm.Get("enabled") != "",
		Recipients: r.PostForm.Get("recipients"),
		CC:         r.PostForm.Get("cc"),
		FromName:   r.PostForm.Get("from_name"),
		FromEmail:  r.PostForm.Get("from_email"),
		Subject:    r.PostForm.Get("subject"),
	}

	saved, err := h.Admin.SaveSettings(r.Context(), in)
	if err != nil {
		h.internalError(w, r, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
