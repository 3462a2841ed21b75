package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/CIDgravity/snakelet"
	"github.com/joho/godotenv"
)

// config structure
type Config struct {
	API    APIConfig    `mapstructure:"API"`
	Github GithubConfig `mapstructure:"GITHUB"`
	Tasks  TasksConfig  `mapstructure:"TASKS"`
	Cache  CacheConfig  `mapstructure:"CACHE"`
	Logs   LogsConfig   `mapstructure:"LOGS"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type GithubConfig struct {
	Token            string `mapstructure:"Token"`
	SearchQuery      string `mapstructure:"SearchQuery"`
	MaxAccounts      int    `mapstructure:"MaxAccounts"`
	PageSize         int    `mapstructure:"PageSize"`
	TopLanguages     int    `mapstructure:"TopLanguages"`
	SampledRepos     int    `mapstructure:"SampledRepos"`
	ReposPerPage     int    `mapstructure:"ReposPerPage"`
	FollowersPreview int    `mapstructure:"FollowersPreview"`
	MinBudget        int    `mapstructure:"MinBudget"`
	PageDelayMs      int    `mapstructure:"PageDelayMs"`
	AccountDelayMs   int    `mapstructure:"AccountDelayMs"`
	StaggerMs        int    `mapstructure:"StaggerMs"`
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type CacheConfig struct {
	TTLMinutes int `mapstructure:"TTLMinutes"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJson"`
}

// Load
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(dir + "/config/config.toml"); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	// load default and config file content
	cfg := GetDefault()
	_, err = snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	// the token can also come from a .env file or the environment
	// a value from the config file takes precedence when both are set
	_ = godotenv.Load()

	if cfg.Github.Token == "" {
		cfg.Github.Token = os.Getenv("GITHUB_TOKEN")
	}

	return cfg, nil
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Github: GithubConfig{
			SearchQuery:      "type:user followers:>=50",
			MaxAccounts:      100,
			PageSize:         50,
			TopLanguages:     3,
			SampledRepos:     10,
			ReposPerPage:     100,
			FollowersPreview: 8,
			MinBudget:        15,
			PageDelayMs:      500,
			AccountDelayMs:   300,
			StaggerMs:        100,
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 8,
		},
		Cache: CacheConfig{
			TTLMinutes: 60,
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJSON: false,
		},
	}
}

// PageDelay is the pause between two discovery pages
func (c GithubConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMs) * time.Millisecond
}

// AccountDelay is the pause between two accounts during bulk enrichment
func (c GithubConfig) AccountDelay() time.Duration {
	return time.Duration(c.AccountDelayMs) * time.Millisecond
}

// Stagger is the delay between two language fetch launches for one account
func (c GithubConfig) Stagger() time.Duration {
	return time.Duration(c.StaggerMs) * time.Millisecond
}

// TTL is the lifetime of a cache entry
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}
