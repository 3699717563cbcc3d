// Package termcfg loads the terminal client's settings from the XDG config
// directory.
package termcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	petname "github.com/dustinkirkland/golang-petname"
)

var (
	cfgFile    = "cheese-checkers/term.json"
	archiveDir = "cheese-checkers/archive"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

// Colors are 256-color palette indexes.
type Colors struct {
	Board       int `json:"board"`
	BoardAlt    int `json:"board_alt"`
	Dark        int `json:"dark"`
	Light       int `json:"light"`
	Cursor      int `json:"cursor"`
	Selected    int `json:"selected"`
	Destination int `json:"destination"`
	LastMove    int `json:"last_move"`
}

type Symbols struct {
	Man         rune `json:"man"`
	Empty       rune `json:"empty"`
	Destination rune `json:"destination"`
}

type Theme struct {
	Colors  Colors  `json:"colors"`
	Symbols Symbols `json:"symbols"`
}

type Config struct {
	DarkName   string `json:"dark_name"`
	LightName  string `json:"light_name"`
	ArchiveDir string `json:"archive_dir"`
	Flip       bool   `json:"flip"`
	Theme      Theme  `json:"theme"`
}

var DefaultTheme = Theme{
	Colors: Colors{
		Board:       94,
		BoardAlt:    180,
		Dark:        232,
		Light:       255,
		Cursor:      4,
		Selected:    3,
		Destination: 2,
		LastMove:    22,
	},
	Symbols: Symbols{
		Man:         '●',
		Empty:       ' ',
		Destination: '·',
	},
}

// Default returns a config with generated player names.
func Default() Config {
	return Config{
		DarkName:  petname.Generate(2, "-"),
		LightName: petname.Generate(2, "-"),
		Theme:     DefaultTheme,
	}
}

// Load reads the config file if one exists under the XDG config dirs and
// fills unset fields with defaults.
func Load() (*Config, error) {
	path, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		cfg := Default()
		return &cfg, nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fill() {
	c.DarkName = strings.TrimSpace(c.DarkName)
	c.LightName = strings.TrimSpace(c.LightName)
	if c.DarkName == "" {
		c.DarkName = petname.Generate(2, "-")
	}
	if c.LightName == "" {
		c.LightName = petname.Generate(2, "-")
	}
	if c.Theme.Symbols.Man == 0 {
		c.Theme.Symbols.Man = DefaultTheme.Symbols.Man
	}
	if c.Theme.Symbols.Empty == 0 {
		c.Theme.Symbols.Empty = DefaultTheme.Symbols.Empty
	}
	if c.Theme.Symbols.Destination == 0 {
		c.Theme.Symbols.Destination = DefaultTheme.Symbols.Destination
	}
}

func (c *Config) Validate() error {
	for _, r := range []rune{c.Theme.Symbols.Man, c.Theme.Symbols.Empty, c.Theme.Symbols.Destination} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	cs := c.Theme.Colors
	for _, v := range []int{cs.Board, cs.BoardAlt, cs.Dark, cs.Light, cs.Cursor, cs.Selected, cs.Destination, cs.LastMove} {
		if v < 0 || v > 255 {
			return &InvalidConfig{fmt.Sprintf("color %d is outside the 256-color palette", v)}
		}
	}
	if c.DarkName == c.LightName {
		return &InvalidConfig{"player names must differ"}
	}
	return nil
}

// Save writes the config to the XDG config home.
func (c *Config) Save() error {
	path, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

func (c *Config) SaveFile(path string) error {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o664)
}

// Archive returns the badger directory for finished games, creating it under
// the XDG data home unless ArchiveDir overrides it.
func (c *Config) Archive() (string, error) {
	if dir := strings.TrimSpace(c.ArchiveDir); dir != "" {
		return dir, os.MkdirAll(dir, 0o755)
	}
	marker, err := xdg.DataFile(filepath.Join(archiveDir, ".keep"))
	if err != nil {
		return "", err
	}
	return filepath.Dir(marker), nil
}
