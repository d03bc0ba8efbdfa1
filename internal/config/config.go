// Package config loads hpi settings from hpi.yaml and HPI_* environment
// variables and bootstraps the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Annotate   AnnotateConfig   `yaml:"annotate" mapstructure:"annotate"`
	Wikipedia  WikipediaConfig  `yaml:"wikipedia" mapstructure:"wikipedia"`
	Ledger     LedgerConfig     `yaml:"ledger" mapstructure:"ledger"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Watch      WatchConfig      `yaml:"watch" mapstructure:"watch"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the corpus. Relative paths resolve against Root.
type DataConfig struct {
	Root           string `yaml:"root" mapstructure:"root"`
	EventsDir      string `yaml:"events_dir" mapstructure:"events_dir"`
	IndexPath      string `yaml:"index_path" mapstructure:"index_path"`
	KnowledgeLost  string `yaml:"knowledge_lost" mapstructure:"knowledge_lost"`
	KnowledgeSaved string `yaml:"knowledge_saved" mapstructure:"knowledge_saved"`
}

// ReportConfig lists the markdown documents whose marker regions are
// regenerated.
type ReportConfig struct {
	Documents          []string `yaml:"documents" mapstructure:"documents"`
	KnowledgeDocuments []string `yaml:"knowledge_documents" mapstructure:"knowledge_documents"`
}

// AnnotateConfig configures the annotation passes.
type AnnotateConfig struct {
	// TablesDir holds YAML files replacing the embedded lookup tables of
	// the same name.
	TablesDir string `yaml:"tables_dir" mapstructure:"tables_dir"`
}

// WikipediaConfig configures the encyclopedia search client.
type WikipediaConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	DelayMs          int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Limit            int    `yaml:"limit" mapstructure:"limit"`
	FailureThreshold int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int    `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Delay returns the spacing between requests.
func (c WikipediaConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (c WikipediaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LedgerConfig configures the run ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Debounce returns the quiet period before a regeneration.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// MonitoringConfig configures the gauge refresher.
type MonitoringConfig struct {
	IntervalSecs int `yaml:"interval_secs" mapstructure:"interval_secs"`
}

// Interval returns the refresh period.
func (c MonitoringConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("hpi")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.root", ".")
	v.SetDefault("data.events_dir", "data/events")
	v.SetDefault("data.index_path", "data/index.json")
	v.SetDefault("data.knowledge_lost", "data/knowledge_lost.json")
	v.SetDefault("data.knowledge_saved", "data/knowledge_saved.json")
	v.SetDefault("report.documents", []string{"README.md"})
	v.SetDefault("report.knowledge_documents", []string{"KNOWLEDGE.md"})
	v.SetDefault("annotate.tables_dir", "")
	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.user_agent", "HistoricalPatternIndex/1.0 (research project)")
	v.SetDefault("wikipedia.delay_ms", 500)
	v.SetDefault("wikipedia.timeout_secs", 10)
	v.SetDefault("wikipedia.limit", 3)
	v.SetDefault("wikipedia.failure_threshold", 5)
	v.SetDefault("wikipedia.reset_timeout_secs", 30)
	v.SetDefault("ledger.driver", "none")
	v.SetDefault("ledger.database_url", ".hpi/ledger.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("watch.debounce_ms", 500)
	v.SetDefault("monitoring.interval_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validation modes, one per group of commands.
const (
	ModeCorpus = "corpus"
	ModeReport = "report"
	ModeLinks  = "links"
	ModeServe  = "serve"
	ModeLedger = "ledger"
)

// Validate checks the settings a command group depends on. All problems
// are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	require(c.Data.EventsDir != "", "data.events_dir is required")
	require(c.Data.IndexPath != "", "data.index_path is required")

	switch mode {
	case ModeCorpus:
	case ModeReport:
		require(len(c.Report.Documents) > 0, "report.documents must list at least one file")
		require(c.Watch.DebounceMs > 0, "watch.debounce_ms must be > 0")
	case ModeLinks:
		require(c.Wikipedia.BaseURL != "", "wikipedia.base_url is required")
		require(c.Wikipedia.UserAgent != "", "wikipedia.user_agent is required")
		require(c.Wikipedia.DelayMs >= 0, "wikipedia.delay_ms must be >= 0")
		require(c.Wikipedia.TimeoutSecs > 0, "wikipedia.timeout_secs must be > 0")
		require(c.Wikipedia.Limit >= 1 && c.Wikipedia.Limit <= 50, "wikipedia.limit must be between 1 and 50")
		require(c.Wikipedia.FailureThreshold > 0, "wikipedia.failure_threshold must be > 0")
	case ModeServe:
		require(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port must be > 0 and <= 65535")
		require(c.Watch.DebounceMs > 0, "watch.debounce_ms must be > 0")
		require(c.Monitoring.IntervalSecs > 0, "monitoring.interval_secs must be > 0")
	case ModeLedger:
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Ledger.Driver) {
	case "", "none":
		require(mode != ModeLedger, "ledger.driver must be sqlite or postgres to read runs")
	case "sqlite", "postgres":
		require(c.Ledger.DatabaseURL != "", "ledger.database_url is required")
	default:
		errs = append(errs, "ledger.driver must be one of none, sqlite, postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
