package config

import (
	"fmt"

	"github.com/bloops-games/launched/internal/bot"
	"github.com/bloops-games/launched/internal/engine"
	"github.com/bloops-games/launched/internal/server"
	"github.com/bloops-games/launched/internal/snapshot"
	"github.com/gookit/validate"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable, e.g. LAUNCHED_DB_DRIVER.
const EnvPrefix = "LAUNCHED"

type Config struct {
	Debug bool `envconfig:"DEBUG" default:"false"`

	Db     snapshot.Config `envconfig:"DB"`
	Engine engine.Config   `envconfig:"ENGINE"`
	Bot    bot.Config      `envconfig:"TG"`
	Server server.Config   `envconfig:"SERVER"`
}

func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("processing the config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    interface{}
	}{
		{"db", &c.Db},
		{"db.bolt", &c.Db.Bolt},
		{"engine", &c.Engine},
		{"tg", &c.Bot},
		{"tg.cooldown", &c.Bot.Cooldown},
		{"server", &c.Server},
	}

	for _, s := range sections {
		v := validate.Struct(s.v)
		if !v.Validate() {
			return fmt.Errorf("invalid %s config: %s", s.name, v.Errors.Error())
		}
	}

	return nil
}

// Usage prints the recognized variables.
func Usage() error {
	var config Config
	return envconfig.Usage(EnvPrefix, &config)
}
