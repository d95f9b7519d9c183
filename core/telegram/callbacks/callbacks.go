// Package callbacks decodes callback data produced by telebot buttons.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits callback data into the button unique and its
// payload. telebot encodes buttons as "\f<unique>|<payload>" and fills
// Unique itself once a handler matched.
func ParseCallbackData(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	unique, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// PayloadInt parses the payload of the update's callback as an integer.
func PayloadInt(c tele.Context) (int, error) {
	_, payload := ParseCallbackData(c.Callback())
	return strconv.Atoi(strings.TrimSpace(payload))
}
