// Package config resolves process configuration from, in ascending
// priority, compiled-in defaults, an optional .env file, an optional
// TOML file named by -config, and command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/codewanderer42820/marketfeed/constants"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the fully-resolved set of knobs a runner needs.
type Config struct {
	URL     string `toml:"url"`
	N       int    `toml:"n"`
	Out     string `toml:"out"`
	Mode    string `toml:"mode"`
	Seconds int    `toml:"seconds"`

	// Cpus is an optional pin list threaded to the affinity package.
	// Pinning is advisory: the system runs correctly with it empty.
	Cpus []int `toml:"cpus"`
}

func defaults() Config {
	return Config{
		URL:     constants.DefaultURL,
		N:       constants.DefaultN,
		Out:     constants.DefaultOut,
		Mode:    constants.DefaultMode,
		Seconds: 0,
	}
}

// Load resolves Config from args (normally os.Args[1:]). It never calls
// os.Exit itself so callers can control the process exit path.
func Load(args []string) (Config, error) {
	cfg := defaults()

	// .env is the lowest-priority overlay above compiled-in defaults.
	// Missing files are not an error — most environments have none.
	if err := godotenv.Load(); err == nil {
		applyEnvOverlay(&cfg)
	}

	// -config names a TOML file that overlays defaults/.env but is
	// itself overlaid by explicit flags. Scanned ahead of the main flag
	// set so its values become that set's own defaults.
	if path := scanConfigFlag(args); path != "" {
		if err := applyTomlOverlay(&cfg, path); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}

	fs := flag.NewFlagSet("marketfeed", flag.ContinueOnError)
	fs.StringVar(&cfg.URL, "u", cfg.URL, "exchange WebSocket URL")
	fs.IntVar(&cfg.N, "n", cfg.N, "number of redundant connections")
	fs.StringVar(&cfg.Out, "o", cfg.Out, "merged output file")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "session scheduling mode: async|sync")
	fs.IntVar(&cfg.Seconds, "t", cfg.Seconds, "run duration in seconds, 0 = indefinite")
	fs.String("config", "", "optional TOML config file overlay")
	cpusFlag := fs.String("cpus", joinInts(cfg.Cpus), "comma-separated CPU indices to pin dedicated threads to")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *cpusFlag != "" {
		cpus, err := parseInts(*cpusFlag)
		if err != nil {
			return cfg, fmt.Errorf("config: -cpus: %w", err)
		}
		cfg.Cpus = cpus
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.N <= 0 {
		return fmt.Errorf("config: -n must be positive, got %d", c.N)
	}
	if c.Mode != "async" && c.Mode != "sync" {
		return fmt.Errorf("config: -m must be async or sync, got %q", c.Mode)
	}
	if c.Seconds < 0 {
		return fmt.Errorf("config: -t must be non-negative, got %d", c.Seconds)
	}
	return nil
}

func scanConfigFlag(args []string) string {
	for i, a := range args {
		if a == "-config" || a == "--config" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

func applyTomlOverlay(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, cfg)
}

func applyEnvOverlay(cfg *Config) {
	if v := os.Getenv("MDINGEST_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("MDINGEST_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.N = n
		}
	}
	if v := os.Getenv("MDINGEST_OUT"); v != "" {
		cfg.Out = v
	}
	if v := os.Getenv("MDINGEST_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("MDINGEST_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Seconds = n
		}
	}
	if v := os.Getenv("MDINGEST_CPUS"); v != "" {
		if cpus, err := parseInts(v); err == nil {
			cfg.Cpus = cpus
		}
	}
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid CPU index %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
