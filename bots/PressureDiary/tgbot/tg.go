package tgbot

import (
	"context"
	"strings"
	"time"

	"pressurediary/bot"
	"pressurediary/bots/PressureDiary/diary"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// requester is the part of tg.BotAPI the bot talks through
type requester interface {
	Request(c tg.Chattable) (*tg.APIResponse, error)
}

type TBot struct {
	Bot           requester
	Diary         *diary.Service
	Logger        *zap.SugaredLogger
	Dispatcher    *bot.Dispatcher
	RetryDelay    time.Duration
	RetryAttempts int
}

func NewTBot(b requester, d *diary.Service, l *zap.SugaredLogger) *TBot {
	return &TBot{
		Bot:           b,
		Diary:         d,
		Logger:        l,
		Dispatcher:    bot.NewDispatcher(),
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
	}
}

// HandleUpdate queues the update behind earlier updates of the same user.
// Queued updates are handled even after ctx is cancelled.
func (b *TBot) HandleUpdate(ctx context.Context, u tg.Update) {
	ctx = context.WithoutCancel(ctx)

	switch {
	case u.Message != nil && u.Message.From != nil:
		msg := u.Message
		b.Dispatcher.Dispatch(msg.From.ID, func() { b.HandleMessage(ctx, msg) })

	case u.CallbackQuery != nil:
		cbq := u.CallbackQuery
		b.Dispatcher.Dispatch(cbq.From.ID, func() { b.HandleCallback(ctx, cbq) })
	}
}

// Wait blocks until all queued updates are handled
func (b *TBot) Wait() {
	b.Dispatcher.Wait()
}

func (b *TBot) HandleMessage(ctx context.Context, msg *tg.Message) {
	usr := msg.From.ID
	cht := msg.Chat.ID

	txt := msg.Text
	if msg.IsCommand() {
		// drop arguments and the bot mention: "/start@PressureDiaryBot x" is "/start"
		txt = "/" + msg.Command()
	}

	if strings.TrimSpace(txt) == "" {
		// stickers, photos and the like aren't free text and don't resolve a pin
		b.SendMessage(cht, txtTextExpected, msg.MessageID, nil)
		return
	}

	res := b.Diary.HandleText(ctx, usr, txt)
	for _, r := range render(res) {
		if b.SendMessage(cht, r.text, -1, r.keyboard) != nil {
			return
		}
	}
}

func (b *TBot) HandleCallback(ctx context.Context, cbq *tg.CallbackQuery) {
	usr := cbq.From.ID
	cht := usr
	if cbq.Message != nil {
		cht = cbq.Message.Chat.ID
	}

	res := b.Diary.HandleAction(ctx, usr, cbq.Data)
	replies := render(res)

	// stop the spinner on the button
	if _, err := b.Bot.Request(tg.NewCallback(cbq.ID, "")); err != nil {
		b.Logger.Warnw("failed answering callback", "usr", usr, "err", err)
	}

	// a deleted record's message loses its buttons
	if res.Outcome == diary.Deleted && cbq.Message != nil {
		if b.ReplaceMessage(cht, replies[0].text, cbq.Message.MessageID, nil) {
			return
		}
	}

	for _, r := range replies {
		if b.SendMessage(cht, r.text, -1, r.keyboard) != nil {
			return
		}
	}
}

func (b *TBot) SendMessage(cht int64, txt string, replyTo int, kbMarkup any) error {
	m := tg.NewMessage(cht, txt)
	if replyTo >= 0 {
		m.ReplyToMessageID = replyTo
	}
	m.DisableWebPagePreview = true
	if kbMarkup != nil {
		m.ReplyMarkup = kbMarkup
	}

	var err error
	bot.RobustExecute(b.RetryAttempts, b.RetryDelay, func() bool {
		_, err = b.Bot.Request(m)
		return err == nil
	})
	if err != nil {
		b.Logger.Errorw("failed sending message", "cht", cht, "err", err)
	}
	return err
}

func (b *TBot) ReplaceMessage(cht int64, txt string, msgID int, kbMarkup *tg.InlineKeyboardMarkup) bool {
	updText := tg.EditMessageTextConfig{
		BaseEdit: tg.BaseEdit{
			ChatID:      cht,
			MessageID:   msgID,
			ReplyMarkup: kbMarkup,
		},
		DisableWebPagePreview: true,
		Text:                  txt,
	}

	var err error
	ok := bot.RobustExecute(b.RetryAttempts, b.RetryDelay, func() bool {
		_, err = b.Bot.Request(updText)
		if err != nil && strings.HasPrefix(err.Error(), "Bad Request: message is not modified") {
			err = nil
		}
		return err == nil
	})
	if !ok {
		b.Logger.Errorw("failed updating message text", "cht", cht, "err", err)
	}

	return ok
}
