package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"xiangqi/internal/engine"
)

type Config struct {
	Addr      string `json:"addr"`
	WebDir    string `json:"web_dir"`
	MobileDir string `json:"mobile_dir,omitempty"`
	LogLevel  string `json:"log_level"`

	// 会话空闲多久之后回收（秒）
	SessionTimeoutSec int `json:"session_timeout"`
	MaxSessions       int `json:"max_sessions"`
	// 每局悔棋默认退几步（人机对局退一个回合）
	UndoSteps int `json:"undo_steps"`

	DefaultLevel engine.Level         `json:"default_level"`
	Levels       []engine.LevelConfig `json:"levels"`
}

func Default() Config {
	return Config{
		Addr:              "127.0.0.1:2888",
		WebDir:            "web",
		LogLevel:          "info",
		SessionTimeoutSec: 3600,
		MaxSessions:       1000,
		UndoSteps:         2,
		DefaultLevel:      engine.LevelAlphaBeta,
		Levels:            engine.DefaultLevels(),
	}
}

// Load 读 JSON 配置，缺的字段保留默认值。path 为空时直接返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	if c.SessionTimeoutSec <= 0 {
		return errors.Errorf("session_timeout must be positive, got %d", c.SessionTimeoutSec)
	}
	if c.MaxSessions <= 0 {
		return errors.Errorf("max_sessions must be positive, got %d", c.MaxSessions)
	}
	if c.UndoSteps <= 0 {
		return errors.Errorf("undo_steps must be positive, got %d", c.UndoSteps)
	}
	if len(c.Levels) == 0 {
		return errors.New("no AI levels configured")
	}

	seen := make(map[engine.Level]bool, len(c.Levels))
	for _, l := range c.Levels {
		if seen[l.Level] {
			return errors.Errorf("duplicate level %q", l.Level)
		}
		seen[l.Level] = true
		if _, err := engine.NewPlayer(l); err != nil {
			return err
		}
		if l.Depth < 0 || l.TimeLimitSec < 0 || l.QuiescenceDepth < 0 {
			return errors.Errorf("level %q: negative search limit", l.Level)
		}
	}
	if _, err := engine.FindLevel(c.Levels, c.DefaultLevel); err != nil {
		return errors.Wrap(err, "default_level")
	}
	return nil
}

func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSec) * time.Second
}

// ZerologLevel Validate 通过之后才调用
func (c Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
