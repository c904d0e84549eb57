package intake

import (
	"errors"

	"github.com/khdigital94/hdforms/internal/upload"
)

var (
	ErrRateLimited     = errors.New("rate limited")
	ErrEmptyPayload    = errors.New("empty form data")
	ErrPayloadTooLarge = errors.New("form data too large")
	ErrInvalidPayload  = errors.New("invalid form data")
	ErrSpam            = errors.New("spam detected")
	ErrProcessing      = errors.New("processing failed")
)

// Messages shown to the submitter
const (
	MsgRateLimited     = "Zu viele Anfragen. Bitte versuche es in einer Stunde erneut."
	MsgEmptyPayload    = "Keine Formulardaten erhalten"
	MsgPayloadTooLarge = "Formulardaten zu groß"
	MsgInvalidPayload  = "Ungültige Formulardaten"
	MsgSpam            = "Spam erkannt"
	MsgProcessing      = "Fehler beim Verarbeiten der Anfrage"
	MsgSuccess         = "Formular erfolgreich gesendet"

	MsgUploadTransport = "Datei-Upload fehlgeschlagen"
	MsgUploadTooLarge  = "Datei zu groß (max 3MB)"
	MsgUploadType      = "Dateityp nicht erlaubt"
	MsgUploadStore     = "Datei konnte nicht gespeichert werden"
)

// UserMessage maps an intake or upload error to the text shown to the submitter
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, ErrEmptyPayload):
		return MsgEmptyPayload
	case errors.Is(err, ErrPayloadTooLarge):
		return MsgPayloadTooLarge
	case errors.Is(err, ErrInvalidPayload):
		return MsgInvalidPayload
	case errors.Is(err, ErrSpam):
		return MsgSpam
	case errors.Is(err, upload.ErrTransport):
		return MsgUploadTransport
	case errors.Is(err, upload.ErrTooLarge):
		return MsgUploadTooLarge
	case errors.Is(err, upload.ErrTypeNotAllowed):
		return MsgUploadType
	case errors.Is(err, upload.ErrStoreFailed):
		return MsgUploadStore
	default:
		return MsgProcessing
	}
}
