package bot

import (
	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot context keeps references to common (Telegram Bot API, logger,
// configuration) parameters of a bot.
type Context struct {
	Bot    *tg.BotAPI
	Logger *zap.SugaredLogger
	Config *Config
	// Cleanup releases resources acquired in Init. May be nil.
	Cleanup func()
}

// NewContext creates new context. Make sure pointers are not nil.
func NewContext(bot *tg.BotAPI, logger *zap.SugaredLogger, cfg *Config) *Context {
	return &Context{
		Bot:    bot,
		Logger: logger,
		Config: cfg,
	}
}

// Close runs cleanup, if any
func (ctx *Context) Close() {
	if ctx.Cleanup != nil {
		ctx.Cleanup()
	}
}
