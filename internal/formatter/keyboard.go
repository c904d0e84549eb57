package formatter

import (
	"encoding/json"

	"github.com/go-telegram/bot/models"

	appmodels "github.com/khdigital94/hdforms/pkg/models"
)

// BuildSubmissionKeyboard creates the inline keyboard of a submission alert
func BuildSubmissionKeyboard(submissionID int64, isRead bool) *models.InlineKeyboardMarkup {
	row := []models.InlineKeyboardButton{}

	if !isRead {
		row = append(row, models.InlineKeyboardButton{
			Text: "Gelesen",
			CallbackData: EncodeCallback(appmodels.CallbackData{
				Action:       appmodels.CallbackMarkRead,
				SubmissionID: submissionID,
			}),
		})
	}

	row = append(row, models.InlineKeyboardButton{
		Text: "Löschen",
		CallbackData: EncodeCallback(appmodels.CallbackData{
			Action:       appmodels.CallbackDelete,
			SubmissionID: submissionID,
		}),
	})

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{row},
	}
}

// EncodeCallback encodes callback data to string
func EncodeCallback(data appmodels.CallbackData) string {
	b, _ := json.Marshal(data)
	return string(b)
}

// DecodeCallback decodes callback data from string
func DecodeCallback(data string) (appmodels.CallbackData, error) {
	var cb appmodels.CallbackData
	err := json.Unmarshal([]byte(data), &cb)
	return cb, err
}
