package bot

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Each bot should implement the Bot interface.
type Bot interface {
	// Init method initializes the bot (connects to database, configures Telegram
	// Bot, etc.) and returns a context that should be used in the bot. On
	// failure, Init should return an error rather than panic.
	Init(*Config, *zap.SugaredLogger) (*Context, error)
	// Run handles messages from the Telegram Bot until ctx is done. Multiple
	// bots are supposed to run concurrently, so Run should be started in a new
	// goroutine.
	Run(context.Context, *Context) error
}

// Migrator is implemented by bots keeping data in an SQL database.
type Migrator interface {
	Migrate(*Config, *zap.SugaredLogger) error
}

var (
	botsRegistry = make(map[string]Bot)
	botsMu       sync.Mutex
)

// Register adds the bot to the list of bots to run. To register a bot call
// Register in the init function.
func Register(name string, bot Bot) bool {
	botsMu.Lock()
	defer botsMu.Unlock()

	_, ok := botsRegistry[name]
	if ok {
		return false
	}

	botsRegistry[name] = bot
	return true
}

// Named bot record in the bots registry.
type Record struct {
	Name string
	Bot  Bot
}

// GetThemAll returns sorted list of bots.
func GetThemAll() []Record {
	botsMu.Lock()
	defer botsMu.Unlock()

	bots := []Record{}
	for n, b := range botsRegistry {
		bots = append(bots, Record{Name: n, Bot: b})
	}

	sort.Slice(bots, func(i, j int) bool { return bots[i].Name < bots[j].Name })
	return bots
}
