package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"tasktracker/internal/board"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "session.db"
	DefaultLogName        = "tasktracker.log"
	DefaultServerURL      = "http://localhost:5000"
	DefaultNarrowWidth    = 100
	DefaultNoticeSeconds  = 5

	appDirName = "tasktracker"
	envConfig  = "TASKTRACKER_CONFIG"
)

type Keymap struct {
	Quit          string `toml:"quit"`
	Add           string `toml:"add"`
	Edit          string `toml:"edit"`
	Up            string `toml:"up"`
	Down          string `toml:"down"`
	Left          string `toml:"left"`
	Right         string `toml:"right"`
	Toggle        string `toml:"toggle"`
	Delete        string `toml:"delete"`
	Confirm       string `toml:"confirm"`
	Cancel        string `toml:"cancel"`
	Search        string `toml:"search"`
	Filter        string `toml:"filter"`
	Sort          string `toml:"sort"`
	TabTodo       string `toml:"tab_todo"`
	TabInProgress string `toml:"tab_in_progress"`
	TabDone       string `toml:"tab_done"`
	Reload        string `toml:"reload"`
	Theme         string `toml:"theme"`
	Admin         string `toml:"admin"`
	Logout        string `toml:"logout"`
}

type Config struct {
	ServerURL     string `toml:"server_url"`
	DBPath        string `toml:"db_path"`
	LogPath       string `toml:"log_path"`
	LogLevel      string `toml:"log_level"`
	DefaultFilter string `toml:"default_filter"`
	DefaultSort   string `toml:"default_sort"`
	NarrowWidth   int    `toml:"narrow_width"`
	NoticeSeconds int    `toml:"notice_seconds"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath honours $TASKTRACKER_CONFIG, then the user config dir.
func ResolveConfigPath() string {
	if p := os.Getenv(envConfig); p != "" {
		return p
	}
	return filepath.Join(appDir(), DefaultConfigFileName)
}

func appDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appDirName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := board.ParseFilter(c.DefaultFilter); err != nil {
		return fmt.Errorf("default_filter: %w", err)
	}
	if _, err := board.ParseSort(c.DefaultSort); err != nil {
		return fmt.Errorf("default_sort: %w", err)
	}
	if c.NarrowWidth < 0 {
		return errors.New("narrow_width must not be negative")
	}
	return nil
}

func (c Config) NoticeTTL() time.Duration {
	return time.Duration(c.NoticeSeconds) * time.Second
}

func (c *Config) fillDefaults(dir string) {
	def := defaultConfig(dir)
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.NarrowWidth == 0 {
		c.NarrowWidth = def.NarrowWidth
	}
	if c.NoticeSeconds <= 0 {
		c.NoticeSeconds = def.NoticeSeconds
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		ServerURL:     DefaultServerURL,
		DBPath:        filepath.Join(dir, DefaultDBName),
		LogPath:       filepath.Join(dir, DefaultLogName),
		LogLevel:      "info",
		DefaultFilter: string(board.FilterAll),
		DefaultSort:   string(board.SortDueDate),
		NarrowWidth:   DefaultNarrowWidth,
		NoticeSeconds: DefaultNoticeSeconds,
		Keys: Keymap{
			Quit:          "q",
			Add:           "a",
			Edit:          "e",
			Up:            "k",
			Down:          "j",
			Left:          "h",
			Right:         "l",
			Toggle:        " ",
			Delete:        "d",
			Confirm:       "enter",
			Cancel:        "esc",
			Search:        "/",
			Filter:        "f",
			Sort:          "s",
			TabTodo:       "1",
			TabInProgress: "2",
			TabDone:       "3",
			Reload:        "r",
			Theme:         "t",
			Admin:         "A",
			Logout:        "L",
		},
	}
}
