// Package config loads server settings: built-in defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"sevens-lite/apps/server/internal/gateway"
	"sevens-lite/apps/server/internal/table"
	"sevens-lite/sevens"
	"sevens-lite/sevens/npc"
)

type Config struct {
	ListenAddr string  `yaml:"listen-addr"`
	Log        Log     `yaml:"log"`
	Table      Table   `yaml:"table"`
	Gateway    Gateway `yaml:"gateway"`
	NPC        NPC     `yaml:"npc"`
	Lobby      Lobby   `yaml:"lobby"`
	Nats       Nats    `yaml:"nats"`
}

type Log struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type Table struct {
	MaxSeats       int           `yaml:"max-seats"`
	MinSeats       int           `yaml:"min-seats"`
	Ante           int64         `yaml:"ante"`
	MaxBet         int64         `yaml:"max-bet"`
	MaxRaises      int           `yaml:"max-raises"`
	StartingChips  int64         `yaml:"starting-chips"`
	MaxCards       int           `yaml:"max-cards"`
	Seed           int64         `yaml:"seed"`
	TurnTimeout    time.Duration `yaml:"turn-timeout"`
	NextRoundDelay time.Duration `yaml:"next-round-delay"`
}

type Gateway struct {
	SendQueue    int     `yaml:"send-queue"`
	ReadLimit    int64   `yaml:"read-limit"`
	MaxBadFrames int     `yaml:"max-bad-frames"`
	RateLimit    float64 `yaml:"rate-limit"`
	RateBurst    int     `yaml:"rate-burst"`
}

type NPC struct {
	// Personas is an optional JSON file of extra personas.
	Personas string        `yaml:"personas"`
	MinThink time.Duration `yaml:"min-think"`
	Jitter   time.Duration `yaml:"jitter"`
}

type Lobby struct {
	SweepInterval time.Duration `yaml:"sweep-interval"`
	IdleTTL       time.Duration `yaml:"idle-ttl"`
}

type Nats struct {
	// URL empty disables round publishing.
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	game := sevens.DefaultConfig()
	gw := gateway.DefaultOptions()
	npcOpts := npc.DefaultOptions()
	return Config{
		ListenAddr: ":8080",
		Log:        Log{Level: "info", Console: true},
		Table: Table{
			MaxSeats:       game.MaxSeats,
			MinSeats:       game.MinSeats,
			Ante:           game.Ante,
			MaxBet:         game.MaxBet,
			MaxRaises:      game.MaxRaises,
			StartingChips:  game.StartingChips,
			MaxCards:       game.MaxCards,
			TurnTimeout:    30 * time.Second,
			NextRoundDelay: 8 * time.Second,
		},
		Gateway: Gateway{
			SendQueue:    gw.SendQueue,
			ReadLimit:    gw.ReadLimit,
			MaxBadFrames: gw.MaxBadFrames,
			RateLimit:    float64(gw.RateLimit),
			RateBurst:    gw.RateBurst,
		},
		NPC:   NPC{MinThink: npcOpts.MinThink, Jitter: npcOpts.Jitter},
		Lobby: Lobby{SweepInterval: time.Minute, IdleTTL: 5 * time.Minute},
		Nats:  Nats{Subject: "sevens.rounds"},
	}
}

// Load reads path over the defaults (path may be empty) and applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	if err := Environment.Apply(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen-addr is empty")
	}
	if err := c.GameConfig().Validate(); err != nil {
		return errors.Wrap(err, "table")
	}
	if c.Table.TurnTimeout < 0 || c.Table.NextRoundDelay < 0 {
		return errors.New("table timers must not be negative")
	}
	if c.Gateway.SendQueue < 1 {
		return errors.Errorf("gateway send-queue %d must be positive", c.Gateway.SendQueue)
	}
	if c.Gateway.RateLimit <= 0 || c.Gateway.RateBurst < 1 {
		return errors.New("gateway rate-limit and rate-burst must be positive")
	}
	if c.Lobby.SweepInterval <= 0 {
		return errors.New("lobby sweep-interval must be positive")
	}
	return nil
}

// GameConfig is the rules configuration for new tables.
func (c Config) GameConfig() sevens.Config {
	return sevens.Config{
		Variant:       sevens.VariantSevenTwentySeven,
		MaxSeats:      c.Table.MaxSeats,
		MinSeats:      c.Table.MinSeats,
		Ante:          c.Table.Ante,
		MaxBet:        c.Table.MaxBet,
		MaxRaises:     c.Table.MaxRaises,
		StartingChips: c.Table.StartingChips,
		MaxCards:      c.Table.MaxCards,
		Seed:          c.Table.Seed,
	}
}

func (c Config) TableConfig() table.Config {
	return table.Config{
		Game:           c.GameConfig(),
		TurnTimeout:    c.Table.TurnTimeout,
		NextRoundDelay: c.Table.NextRoundDelay,
	}
}

func (c Config) GatewayOptions() gateway.Options {
	opts := gateway.DefaultOptions()
	opts.SendQueue = c.Gateway.SendQueue
	opts.ReadLimit = c.Gateway.ReadLimit
	opts.MaxBadFrames = c.Gateway.MaxBadFrames
	opts.RateLimit = rate.Limit(c.Gateway.RateLimit)
	opts.RateBurst = c.Gateway.RateBurst
	return opts
}

func (c Config) NPCOptions() npc.Options {
	return npc.Options{MinThink: c.NPC.MinThink, Jitter: c.NPC.Jitter, Seed: c.Table.Seed}
}
