package pressurediary

import (
	"context"
	"time"

	"pressurediary/bot"
	"pressurediary/bots/PressureDiary/db"
	"pressurediary/bots/PressureDiary/diary"
	"pressurediary/bots/PressureDiary/metrics"
	"pressurediary/bots/PressureDiary/tgbot"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const Name = "PressureDiaryBot"

type PressureDiary struct {
	tbot    *tgbot.TBot
	db      db.Database
	metrics *metrics.Metrics
}

func (pd *PressureDiary) Init(cfg *bot.Config, l *zap.SugaredLogger) (*bot.Context, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		l.Errorw("failed to load time zone", "tz", cfg.TimeZone, "err", err)
		return nil, err
	}

	d, err := openDB(cfg, l)
	if err != nil {
		l.Errorw("failed to initialize database", "err", err)
		return nil, err
	}

	var pins diary.Pins = d
	if cfg.PinStore == bot.PinStoreMemory || cfg.DBDriver == db.DriverMemory {
		pins = db.NewMemoryPins()
	}

	b, err := tg.NewBotAPI(cfg.TgToken)
	if err != nil {
		l.Error("failed to initialize Telegram Bot")
		d.Close()
		return nil, err
	}

	b.Debug = false

	l.Infof("authorized on account %q", b.Self.UserName)

	pd.db = d
	pd.metrics = metrics.New()

	s := diary.NewService(d, pins, l)
	s.Location = loc
	s.DiaryLimit = cfg.DiaryLimit
	s.Timeout = cfg.DBTimeout
	s.Metrics = pd.metrics

	pd.tbot = tgbot.NewTBot(b, s, l)

	ctx := bot.NewContext(b, l, cfg)
	ctx.Cleanup = d.Close
	return ctx, nil
}

// openDB connects to the database retrying on failure
func openDB(cfg *bot.Config, l *zap.SugaredLogger) (db.Database, error) {
	var (
		d   db.Database
		err error
	)

	bot.RobustExecute(max(cfg.DBRetryAttempts, 1), cfg.DBRetryDelay, func() bool {
		ctx := context.Background()
		if cfg.DBTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.DBTimeout)
			defer cancel()
		}

		d, err = db.Open(ctx, cfg.DBDriver, cfg.DBConnStr)
		if err != nil {
			l.Warnw("failed connecting to database", "driver", cfg.DBDriver, "err", err)
		}
		return err == nil
	})

	return d, err
}

func (pd *PressureDiary) Run(ctx context.Context, bctx *bot.Context) error {
	if bctx == nil || bctx.Bot == nil || pd.tbot == nil {
		return errors.New("bot isn't initialized")
	}
	defer bctx.Close()

	uCfg := tg.NewUpdate(0)
	uCfg.Timeout = 60

	g, ctx := errgroup.WithContext(ctx)

	if addr := bctx.Config.MetricsAddr; addr != "" {
		g.Go(func() error {
			pd.serveMetrics(ctx, addr, bctx.Logger)
			return nil
		})
	}

	g.Go(func() error {
		updates := bctx.Bot.GetUpdatesChan(uCfg)
		go func() {
			<-ctx.Done()
			bctx.Bot.StopReceivingUpdates()
		}()

		for u := range updates {
			pd.tbot.HandleUpdate(ctx, u)
		}

		bctx.Logger.Info("stopped receiving updates, finishing queued ones")
		pd.tbot.Wait()
		return nil
	})

	return g.Wait()
}

// serveMetrics serves metrics until ctx is done. A failing listener is
// logged, the bot keeps handling updates without it.
func (pd *PressureDiary) serveMetrics(ctx context.Context, addr string, l *zap.SugaredLogger) {
	l.Infow("serving metrics", "addr", addr)
	if err := pd.metrics.Serve(ctx, addr, pd.db.Ping); err != nil {
		l.Errorw("metrics server failed", "addr", addr, "err", err)
	}
}

// Migrate brings the database schema up to date
func (pd *PressureDiary) Migrate(cfg *bot.Config, l *zap.SugaredLogger) error {
	if cfg.DBDriver == db.DriverMemory {
		l.Info("in-memory database doesn't need migrations")
		return nil
	}

	if err := db.Migrate(cfg.DBDriver, cfg.DBConnStr); err != nil {
		l.Errorw("failed to migrate database", "err", err)
		return err
	}

	l.Info("database is up to date")
	return nil
}

func init() {
	bot.Register(Name, &PressureDiary{})
}
