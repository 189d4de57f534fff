package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the seen-item store (e.g. localhost:6379); empty uses embedded SQLite"`
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/feedhook.db" description:"SQLite database path, used when no Redis address is configured"`

	// Application configuration
	TargetsDir        string `long:"targets-dir" env:"TARGETS_DIR" default:"./targets" description:"Directory containing target configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	EnableHTTP        bool   `long:"enable-http" env:"ENABLE_HTTP_REQUEST" description:"Enable the full HTTP status surface (health and info endpoints)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for target processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	SeenTTLDays       int    `long:"seen-ttl" env:"SEEN_TTL_DAYS" default:"10" description:"Days to keep delivered items in the seen-item store"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"feedhook/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		RedisAddr:         raw.RedisAddr,
		DBPath:            raw.DBPath,
		TargetsDir:        raw.TargetsDir,
		Port:              raw.Port,
		EnableHTTP:        raw.EnableHTTP,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		SeenTTLDays:       raw.SeenTTLDays,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
