package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tspart/pkg/cache"
	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/pipeline"
)

// Cache backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config is the on-disk configuration file:
//
//	[convert]
//	solver_kind = "linkern"
//	runs = 3
//	timeout = "10m"
//	layer = "TSP art"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
type Config struct {
	Convert pipeline.Options `toml:"convert"`
	Cache   CacheConfig      `toml:"cache"`
}

// CacheConfig selects and configures the tour cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend"` // file (default), redis, none
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

func (c CacheConfig) validate() error {
	switch c.Backend {
	case "", backendFile, backendRedis, backendNone:
	default:
		return errs.New(errs.ErrCodeInvalidOption, "invalid cache backend: %q (must be one of: file, redis, none)", c.Backend)
	}
	if c.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidOption, "cache ttl must not be negative, got %s", c.TTL)
	}
	return nil
}

// configDir returns the config directory using XDG standard (~/.config/tspart/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultConfigPath returns the config file read when --config is not given.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads the configuration at path. A missing default file yields
// an empty config; a missing explicit file is an error.
func loadConfig(path string) (Config, string, error) {
	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return Config{}, "", nil
		}
		path = p
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, path, nil
		}
		return Config{}, path, errs.Wrap(errs.ErrCodeInvalidOption, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, path, errs.New(errs.ErrCodeInvalidOption, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Cache.validate(); err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// newCache builds the configured tour cache.
func newCache(cmd *cobra.Command, cfg CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == backendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == backendRedis {
		return cache.NewRedisCache(cmd.Context(), cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := defaultConfigPath()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = p
			}
			fmt.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			opts := cfg.Convert
			opts.SetDefaults()

			printInfo("Configuration %s", StyleDim.Render(path))
			fmt.Println(configTable(opts, cfg.Cache))
			return nil
		},
	})

	return cmd
}

// configTable renders the effective settings.
func configTable(o pipeline.Options, cc CacheConfig) string {
	backend := cc.Backend
	if backend == "" {
		backend = backendFile
	}
	ttl := cc.TTL
	if ttl == 0 {
		ttl = cache.TTLTour
	}
	timeout := "none"
	if o.Timeout > 0 {
		timeout = o.Timeout.String()
	}
	solverExe := o.Solver
	if solverExe == "" {
		solverExe = o.SolverKind
	}

	settings := map[string]string{
		"solver":        solverExe,
		"solver_kind":   o.SolverKind,
		"runs":          strconv.Itoa(o.Runs),
		"seed":          strconv.FormatInt(o.Seed, 10),
		"timeout":       timeout,
		"scale":         formatScale(o.Scale),
		"formats":       strings.Join(o.Formats, ","),
		"stroke":        o.Stroke,
		"stroke_width":  strconv.FormatFloat(o.StrokeWidth, 'g', -1, 64),
		"fill":          o.Fill,
		"margin":        strconv.FormatFloat(o.Margin, 'g', -1, 64),
		"layer":         o.Layer,
		"max_segments":  strconv.Itoa(o.MaxSegments),
		"closure":       o.Closure,
		"canvas":        o.Canvas,
		"dots":          strconv.FormatBool(o.Dots),
		"keep_temp":     strconv.FormatBool(o.KeepTemp),
		"cache.backend": backend,
		"cache.ttl":     ttl.String(),
	}
	if backend == backendRedis {
		settings["cache.redis_addr"] = cc.RedisAddr
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, settings[k]}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Key", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return StyleValue
		}).
		Render()
}

func formatScale(s float64) string {
	if s == 0 {
		return "auto"
	}
	return strconv.FormatFloat(s, 'g', -1, 64)
}
