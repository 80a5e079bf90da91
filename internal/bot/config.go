package bot

import (
	"time"

	"github.com/bloops-games/launched/internal/cooldown"
)

type Config struct {
	// Telegram bot token, the bot is disabled when empty
	Token string `envconfig:"TOKEN"`

	// Logging all requests and responses from telegram
	Debug bool `envconfig:"DEBUG" default:"false"`

	PollTimeout time.Duration `envconfig:"POLL_TIMEOUT" default:"60s"`

	// Number of update workers, 0 means one per CPU
	Workers int `envconfig:"WORKERS" default:"0" validate:"min:0"`

	// Number of rendered /stats replies kept
	CacheSize int `envconfig:"CACHE_SIZE" default:"1024" validate:"min:1"`

	Cooldown cooldown.Config `envconfig:"COOLDOWN"`
}
