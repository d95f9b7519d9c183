// Package ui builds reusable Telegram presentation pieces.
package ui

import tele "gopkg.in/telebot.v4"

// Article is an inline result that sends text when picked. An empty
// description is left out.
func Article(id, title, text, description string) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Text:        text,
		Description: description,
	}
	result.SetResultID(id)
	return result
}
