package forms

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khdigital94/hdforms/internal/database"
	"github.com/khdigital94/hdforms/pkg/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "forms.db"), "wp_")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return NewRegistry(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInject_Placeholder(t *testing.T) {
	code := `<script>const a = {{FORM_CONFIG}}; const b = {{FORM_CONFIG}};</script>`
	out, err := Inject(code, EmbedConfig{FormID: "form_1_kontakt", FormName: "Kontakt", PostID: 5})
	require.NoError(t, err)

	cfg := `{"formId":"form_1_kontakt","formName":"Kontakt","postId":5}`
	assert.Equal(t, `<script>const a = `+cfg+`; const b = `+cfg+`;</script>`, out)
}

func TestInject_Literal(t *testing.T) {
	code := "<script>\nconst   FORM_CONFIG=\n{ endpoint: '/x' };\nconst FORM_CONFIG = { other: 1 };</script>"
	out, err := Inject(code, EmbedConfig{FormID: "form_2_a", FormName: "A"})
	require.NoError(t, err)

	assert.Equal(t,
		"<script>\nconst FORM_CONFIG = { ...{\"formId\":\"form_2_a\",\"formName\":\"A\",\"postId\":0},  endpoint: '/x' };\nconst FORM_CONFIG = { other: 1 };</script>",
		out)
}

func TestInject_NoMatchUnchanged(t *testing.T) {
	code := `<form><input name="x"></form>`
	out, err := Inject(code, EmbedConfig{FormID: "form_3_x"})
	require.NoError(t, err)
	assert.Equal(t, code, out)
}

func TestInject_EscapesTitle(t *testing.T) {
	out, err := Inject(ConfigPlaceholder, EmbedConfig{FormName: `</script><script>alert("x")`})
	require.NoError(t, err)
	assert.NotContains(t, out, "</script>")
}

func TestInstanceKey(t *testing.T) {
	form := &models.FormTemplate{ID: 4, Title: "Bewerbung für Köche"}
	assert.Equal(t, "form_4_bewerbung-fuer-koeche", InstanceKey(form, 0))
	assert.Equal(t, "form_4_bewerbung-fuer-koeche", InstanceKey(form, 1))
	assert.Equal(t, "form_4_bewerbung-fuer-koeche_2", InstanceKey(form, 2))
}

func TestRegistry_CRUD(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.Create(ctx, "  <b></b> ", "x")
	assert.ErrorIs(t, err, ErrTitleMissing)

	form, err := r.Create(ctx, "<b>Kontakt</b>", "<form></form>")
	require.NoError(t, err)
	assert.Equal(t, "Kontakt", form.Title)
	assert.Equal(t, `[custom_form id="`+itoa(form.ID)+`"]`, form.Shortcode())

	updated, err := r.Update(ctx, form.ID, "Kontakt neu", "<form id=x></form>")
	require.NoError(t, err)
	assert.Equal(t, "Kontakt neu", updated.Title)
	assert.Equal(t, "<form id=x></form>", updated.FormCode)

	_, err = r.Update(ctx, 999, "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.Delete(ctx, form.ID))
	assert.ErrorIs(t, r.Delete(ctx, form.ID), ErrNotFound)
	_, err = r.Get(ctx, form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RenderErrors(t *testing.T) {
	r := newTestRegistry(t)

	out, err := r.Render(context.Background(), 0, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, MsgMissingID)

	out, err = r.Render(context.Background(), 42, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, MsgNotFound)
}

func TestRegistry_ExpandShortcodesDistinctInstances(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	form, err := r.Create(ctx, "Kontakt", `<div id="{{FORM_CONFIG}}"></div>`)
	require.NoError(t, err)

	id := itoa(form.ID)
	content := `<p>A</p>[custom_form id="` + id + `"]<p>B</p>[custom_form id=` + id + `][custom_form id="99"]`

	out, err := r.ExpandShortcodes(ctx, content, 7)
	require.NoError(t, err)

	key := "form_" + id + "_kontakt"
	assert.Contains(t, out, `"formId":"`+key+`"`)
	assert.Contains(t, out, `"formId":"`+key+`_2"`)
	assert.Contains(t, out, `"postId":7`)
	assert.Contains(t, out, MsgNotFound)
	assert.NotContains(t, out, "[custom_form")
	assert.Equal(t, 1, strings.Count(out, `"formId":"`+key+`"`))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
