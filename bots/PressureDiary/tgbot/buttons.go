package tgbot

import (
	"pressurediary/bots/PressureDiary/router"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var mainKeyboard = tg.NewReplyKeyboard(
	tg.NewKeyboardButtonRow(
		tg.NewKeyboardButton(router.LabelNewEntry),
	),
	tg.NewKeyboardButtonRow(
		tg.NewKeyboardButton(router.LabelPastEntry),
		tg.NewKeyboardButton(router.LabelShowDiary),
	),
	tg.NewKeyboardButtonRow(
		tg.NewKeyboardButton(router.LabelEdit),
		tg.NewKeyboardButton(router.LabelDelete),
	),
)

// recordKeyboard is attached to every listed record
func recordKeyboard(id int64) tg.InlineKeyboardMarkup {
	return tg.NewInlineKeyboardMarkup(
		tg.NewInlineKeyboardRow(
			tg.NewInlineKeyboardButtonData("✏️ Edit", router.ActionData(router.ActionEdit, id)),
			tg.NewInlineKeyboardButtonData("🗑 Delete", router.ActionData(router.ActionDelete, id)),
		),
	)
}
