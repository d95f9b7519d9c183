// Package keyboard builds inline keyboards from plain button values.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one callback button: Unique selects the handler and Data is
// its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Rows converts a layout of any button type into InlineBtn rows.
func Rows[T any](layout [][]T, btn func(T) InlineBtn) [][]InlineBtn {
	out := make([][]InlineBtn, len(layout))
	for i, row := range layout {
		out[i] = make([]InlineBtn, len(row))
		for j, b := range row {
			out[i][j] = btn(b)
		}
	}
	return out
}

// InlineButtonsRows builds the markup for rows; empty rows are dropped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *rm.Data(b.Text, b.Unique, b.Data).Inline())
		}
		rm.InlineKeyboard = append(rm.InlineKeyboard, line)
	}
	return rm
}
