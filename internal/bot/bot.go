package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/bloops-games/launched/internal/bot/resource"
	"github.com/bloops-games/launched/internal/cache"
	"github.com/bloops-games/launched/internal/cooldown"
	"github.com/bloops-games/launched/internal/engine"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/logging"
	"github.com/bloops-games/launched/internal/metrics"
	"github.com/bloops-games/launched/internal/presence"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/valyala/fastrand"
)

var ErrCommandNotFound = fmt.Errorf("command not found")

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Engine is the part of engine.Manager the bot drives.
type Engine interface {
	Register(ctx context.Context, userID int64) (bool, error)
	Deregister(ctx context.Context, userID int64) (bool, error)
	Mark(ctx context.Context, userID int64, game string, marked bool) error
	IsRegistered(userID int64) bool
	ListGames(userID int64) ([]gamestat.Record, error)
	MarkedGames(userID int64) ([]gamestat.Record, error)
	Profile(userID int64) (engine.Stats, error)
}

func New(config *Config, tg Sender, eng Engine, tracker *cooldown.Tracker, statsCache cache.Cache, m metrics.Metrics) *Bot {
	if m == nil {
		m = metrics.Noop{}
	}

	return &Bot{
		config:     config,
		tg:         tg,
		engine:     eng,
		tracker:    tracker,
		statsCache: statsCache,
		metrics:    m,
		randn:      fastrand.Uint32n,
		rand32:     fastrand.Uint32,
		statsGen:   map[int64]uint64{},
	}
}

// Bot serves the Telegram commands and delivers marked-game notifications.
type Bot struct {
	config     *Config
	tg         Sender
	engine     Engine
	tracker    *cooldown.Tracker
	statsCache cache.Cache
	metrics    metrics.Metrics
	randn      func(n uint32) uint32
	rand32     func() uint32

	// statsGen counts invalidations per user. A rendered reply is cached only
	// if no invalidation happened while it was built.
	statsMtx sync.Mutex
	statsGen map[int64]uint64
}

var _ engine.Notifier = (*Bot)(nil)

// Notify tells the user they launched a marked game. Private chats share the
// user id.
func (b *Bot) Notify(_ context.Context, n presence.Notification) error {
	if err := b.send(n.UserID, fmt.Sprintf(resource.TextMarkedLaunch, n.Game), false); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Invalidate drops the cached /stats reply of the user.
func (b *Bot) Invalidate(userID int64) {
	if b.statsCache == nil {
		return
	}

	b.statsMtx.Lock()
	defer b.statsMtx.Unlock()
	b.statsGen[userID]++
	b.statsCache.Remove(userID)
}

func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	workers := b.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	wg := &sync.WaitGroup{}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.pool(ctx, wg, updates)
	}

	wg.Wait()
	return nil
}

func (b *Bot) pool(ctx context.Context, wg *sync.WaitGroup, updCh tgbotapi.UpdatesChannel) {
	defer wg.Done()
	logger := logging.FromContext(ctx).Named("bot.pool")
	for {
		select {
		case update, ok := <-updCh:
			if !ok {
				return
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				logger.Errorf("handle update: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}

	userID, chatID := int64(msg.From.ID), msg.Chat.ID
	logger := logging.FromContext(ctx).Named("bot").With("user_id", userID, "command", msg.Command())
	ctx = logging.WithLogger(ctx, logger)

	err := b.handleCommand(ctx, msg, userID, chatID)
	if errors.Is(err, ErrCommandNotFound) {
		return b.handleInvalidCommand(userID, chatID)
	}

	if err != nil {
		if sendErr := b.send(chatID, resource.TextWarnMsg, false); sendErr != nil {
			logger.Errorf("send warn msg: %v", sendErr)
		}
		return fmt.Errorf("handle %s cmd: %w", msg.Command(), err)
	}

	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID, chatID int64) error {
	name := displayName(msg.From)
	args := strings.TrimSpace(msg.CommandArguments())

	switch strings.ToLower(msg.Command()) {
	case resource.CmdStart, resource.CmdHelp:
		return b.send(chatID, resource.TextHelpMsg, true)
	case resource.CmdRegister:
		return b.handleRegisterCmd(ctx, userID, chatID, name)
	case resource.CmdDeregister:
		return b.handleDeregisterCmd(ctx, userID, chatID, name)
	case resource.CmdMark:
		return b.handleMarkCmd(ctx, userID, chatID, args, true)
	case resource.CmdUnmark:
		return b.handleMarkCmd(ctx, userID, chatID, args, false)
	case resource.CmdGetList:
		return b.handleListCmd(userID, chatID, name, false)
	case resource.CmdMarkedGames:
		return b.handleListCmd(userID, chatID, name, true)
	case resource.CmdStats:
		return b.handleStatsCmd(userID, chatID, name, args)
	case resource.CmdIsRegistered:
		return b.handleIsRegisteredCmd(userID, chatID, args)
	case resource.CmdCoinFlip:
		return b.handleCoinFlipCmd(chatID)
	case resource.CmdRandom:
		return b.handleRandomCmd(chatID, args)
	default:
		return ErrCommandNotFound
	}
}

func (b *Bot) handleInvalidCommand(userID, chatID int64) error {
	if b.tracker == nil || !b.engine.IsRegistered(userID) {
		return nil
	}

	switch b.tracker.Invalid(userID) {
	case cooldown.VerdictNotice:
		return b.send(chatID, resource.TextInvalidCmdMsg, false)
	case cooldown.VerdictCooldownStarted:
		b.metrics.IncCooldowns()
		return b.send(chatID, fmt.Sprintf(resource.TextCooldownMsg, b.config.Cooldown.Delay), false)
	default:
		return nil
	}
}

func (b *Bot) handleRegisterCmd(ctx context.Context, userID, chatID int64, name string) error {
	created, err := b.engine.Register(ctx, userID)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	text := resource.TextAlreadyRegisteredMsg
	if created {
		text = resource.TextRegisteredMsg
	}

	return b.send(chatID, fmt.Sprintf(text, name), false)
}

func (b *Bot) handleDeregisterCmd(ctx context.Context, userID, chatID int64, name string) error {
	removed, err := b.engine.Deregister(ctx, userID)
	if err != nil {
		return fmt.Errorf("deregister: %w", err)
	}

	if !removed {
		return b.send(chatID, resource.TextNotRegisteredMsg, false)
	}

	if b.tracker != nil {
		b.tracker.Forget(userID)
	}

	return b.send(chatID, fmt.Sprintf(resource.TextDeregisteredMsg, name), false)
}

func (b *Bot) handleMarkCmd(ctx context.Context, userID, chatID int64, game string, marked bool) error {
	cmd := resource.CmdMark
	if !marked {
		cmd = resource.CmdUnmark
	}

	game = strings.Trim(game, `"`)
	if game == "" {
		return b.send(chatID, fmt.Sprintf(resource.TextMarkUsageMsg, cmd), false)
	}

	err := b.engine.Mark(ctx, userID, game, marked)
	switch {
	case errors.Is(err, engine.ErrNotRegistered):
		return b.send(chatID, resource.TextNotRegisteredMsg, false)
	case errors.Is(err, gamestat.ErrUnknownRecord):
		return b.send(chatID, resource.TextGameNotInListMsg, false)
	case err != nil:
		return fmt.Errorf("mark: %w", err)
	}

	text := resource.TextUnmarkedMsg
	if marked {
		text = resource.TextMarkedMsg
	}

	return b.send(chatID, fmt.Sprintf(text, game), false)
}

func (b *Bot) handleListCmd(userID, chatID int64, name string, markedOnly bool) error {
	header, empty, list := resource.TextGamesListHeader, resource.TextNoGamesMsg, b.engine.ListGames
	if markedOnly {
		header, empty, list = resource.TextMarkedListHeader, resource.TextNoMarkedGamesMsg, b.engine.MarkedGames
	}

	games, err := list(userID)
	if errors.Is(err, engine.ErrNotRegistered) {
		return b.send(chatID, resource.TextNotRegisteredMsg, false)
	}
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}

	return b.send(chatID, renderList(fmt.Sprintf(header, escape(name)), empty, games), true)
}

func (b *Bot) handleStatsCmd(userID, chatID int64, name, args string) error {
	target, notRegistered := userID, resource.TextNotRegisteredMsg
	if args != "" {
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return b.send(chatID, resource.TextStatsUsageMsg, false)
		}
		target, name, notRegistered = id, args, resource.TextUserNotRegisteredMsg
	}

	body, err := b.statsBody(target)
	if errors.Is(err, engine.ErrNotRegistered) {
		return b.send(chatID, notRegistered, false)
	}
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	return b.send(chatID, fmt.Sprintf(resource.TextStatsHeader, escape(name))+body, true)
}

func (b *Bot) statsBody(userID int64) (string, error) {
	if b.statsCache == nil {
		stats, err := b.engine.Profile(userID)
		if err != nil {
			return "", err
		}
		return renderStats(stats), nil
	}

	b.statsMtx.Lock()
	v, ok := b.statsCache.Get(userID)
	gen := b.statsGen[userID]
	b.statsMtx.Unlock()
	if ok {
		return v.(string), nil
	}

	stats, err := b.engine.Profile(userID)
	if err != nil {
		return "", err
	}

	body := renderStats(stats)

	b.statsMtx.Lock()
	if b.statsGen[userID] == gen {
		b.statsCache.Add(userID, body)
	}
	b.statsMtx.Unlock()

	return body, nil
}

func (b *Bot) handleIsRegisteredCmd(userID, chatID int64, args string) error {
	target := userID
	if args != "" {
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return b.send(chatID, resource.TextIsNotRegisteredMsg, false)
		}
		target = id
	}

	text := resource.TextIsNotRegisteredMsg
	if b.engine.IsRegistered(target) {
		text = resource.TextIsRegisteredMsg
	}

	return b.send(chatID, text, false)
}

func (b *Bot) handleCoinFlipCmd(chatID int64) error {
	text := resource.TextTails
	if b.randn(2) == 0 {
		text = resource.TextHeads
	}

	return b.send(chatID, text, false)
}

func (b *Bot) handleRandomCmd(chatID int64, args string) error {
	lo, hi := int64(1), int64(10)
	fields := strings.Fields(args)
	if len(fields) > 2 {
		return b.send(chatID, resource.TextRandomUsageMsg, false)
	}

	bounds := []*int64{&lo, &hi}
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return b.send(chatID, resource.TextRandomUsageMsg, false)
		}
		*bounds[i] = v
	}

	if hi < lo {
		return b.send(chatID, resource.TextRandomBoundMsg, false)
	}

	return b.send(chatID, fmt.Sprintf(resource.TextRandomMsg, lo, hi, b.randomIn(lo, hi)), false)
}

// randomIn returns a number in [lo, hi]. Both bounds fit in int32.
func (b *Bot) randomIn(lo, hi int64) int64 {
	span := hi - lo + 1
	if span > math.MaxUint32 {
		return lo + int64(b.rand32())
	}
	return lo + int64(b.randn(uint32(span)))
}

func (b *Bot) send(chatID int64, text string, markdown bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	if _, err := b.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

func displayName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.UserName != "" {
		return u.UserName
	}
	return strconv.Itoa(u.ID)
}
