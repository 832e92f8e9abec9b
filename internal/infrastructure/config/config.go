package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/printing"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Catalog   CatalogConfig
	Upstream  UpstreamConfig
	Render    RenderConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	// Statements slower than this are logged at warn; zero disables it
	SlowQueryThreshold time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
	TrustedProxies  []string
}

// CatalogConfig holds item catalog API settings
type CatalogConfig struct {
	BaseURL        string
	OrganizationID string
	AuthScheme     string        // e.g. "Bearer" or "Zoho-oauthtoken"
	PerPage        int           // items per page request
	Concurrency    int           // pages fetched in parallel
	MaxPages       int           // hard cap on the page walk
	Timeout        time.Duration // per request
	RetryCount     int
	RetryWait      time.Duration
	StaticToken    string        // used instead of Redis when set
	TokenKey       string        // Redis key holding the access token
	TokenTTL       time.Duration // how long a fetched token is reused
}

// UpstreamConfig bounds calls to the catalog, allow-list, metrics and job store
type UpstreamConfig struct {
	Timeout time.Duration
}

// RenderConfig selects and tunes the PDF backend
type RenderConfig struct {
	Engine   string // fpdf or chromedp
	Chromedp ChromedpConfig
	Layout   printing.LabelLayout
	Style    printing.LabelStyle
}

// ChromedpConfig holds headless Chrome settings
type ChromedpConfig struct {
	RemoteURL string
	NoSandbox bool
	Timeout   time.Duration
	Scale     float64
}

// SchedulerConfig holds the retention sweeper configuration
type SchedulerConfig struct {
	RetentionEnabled bool
	JobRetention     time.Duration
	SweepInterval    time.Duration
	SweepTimeout     time.Duration
}

// MetricsConfig holds Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with LBL_ prefix (e.g., LBL_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("LBL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Zero is a meaningful value for some geometry, so these are defaulted
	// through viper rather than applyDefaults
	setRenderDefaults(v)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("database.slow_query_threshold", "500ms")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),

			SlowQueryThreshold: v.GetDuration("database.slow_query_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		Catalog: CatalogConfig{
			BaseURL:        v.GetString("catalog.base_url"),
			OrganizationID: v.GetString("catalog.organization_id"),
			AuthScheme:     v.GetString("catalog.auth_scheme"),
			PerPage:        v.GetInt("catalog.per_page"),
			Concurrency:    v.GetInt("catalog.concurrency"),
			MaxPages:       v.GetInt("catalog.max_pages"),
			Timeout:        v.GetDuration("catalog.timeout"),
			RetryCount:     v.GetInt("catalog.retry_count"),
			RetryWait:      v.GetDuration("catalog.retry_wait"),
			StaticToken:    v.GetString("catalog.static_token"),
			TokenKey:       v.GetString("catalog.token_key"),
			TokenTTL:       v.GetDuration("catalog.token_ttl"),
		},
		Upstream: UpstreamConfig{
			Timeout: v.GetDuration("upstream.timeout"),
		},
		Render: RenderConfig{
			Engine: strings.ToLower(v.GetString("render.engine")),
			Chromedp: ChromedpConfig{
				RemoteURL: v.GetString("render.chromedp.remote_url"),
				NoSandbox: v.GetBool("render.chromedp.no_sandbox"),
				Timeout:   v.GetDuration("render.chromedp.timeout"),
				Scale:     v.GetFloat64("render.chromedp.scale"),
			},
			Layout: loadLayout(v),
			Style:  loadStyle(v),
		},
		Scheduler: SchedulerConfig{
			RetentionEnabled: v.GetBool("scheduler.retention_enabled"),
			JobRetention:     v.GetDuration("scheduler.job_retention"),
			SweepInterval:    v.GetDuration("scheduler.sweep_interval"),
			SweepTimeout:     v.GetDuration("scheduler.sweep_timeout"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setRenderDefaults(v *viper.Viper) {
	l := printing.DefaultLabelLayout()
	v.SetDefault("render.layout.page_width", l.PageWidth)
	v.SetDefault("render.layout.page_height", l.PageHeight)
	v.SetDefault("render.layout.label_width", l.LabelWidth)
	v.SetDefault("render.layout.label_height", l.LabelHeight)
	v.SetDefault("render.layout.top_margin", l.TopMargin)
	v.SetDefault("render.layout.left_margin", l.LeftMargin)
	v.SetDefault("render.layout.rows_per_page", l.RowsPerPage)
	v.SetDefault("render.layout.cols_per_page", l.ColsPerPage)
	v.SetDefault("render.layout.padding", l.Padding)
	v.SetDefault("render.layout.info_column_width", l.InfoColumnWidth)
	v.SetDefault("render.layout.info_line_height", l.InfoLineHeight)
	v.SetDefault("render.layout.metric_line_height", l.MetricLineHeight)
	v.SetDefault("render.layout.metric_column_width", l.MetricColumnWidth)
	v.SetDefault("render.layout.barcode_height", l.BarcodeHeight)

	s := printing.DefaultLabelStyle()
	v.SetDefault("render.style.name.min_size", s.Name.MinSize)
	v.SetDefault("render.style.name.max_size", s.Name.MaxSize)
	v.SetDefault("render.style.name.max_lines", s.Name.MaxLines)
	v.SetDefault("render.style.name.tolerance", s.Name.Tolerance)
	v.SetDefault("render.style.name.max_iterations", s.Name.MaxIterations)
	for _, field := range []struct {
		key  string
		opts printing.ShrinkOptions
	}{{"info", s.Info}, {"metric", s.Metric}} {
		prefix := "render.style." + field.key + "."
		v.SetDefault(prefix+"label_size", field.opts.LabelSize)
		v.SetDefault(prefix+"base_size", field.opts.BaseSize)
		v.SetDefault(prefix+"floor_size", field.opts.FloorSize)
		v.SetDefault(prefix+"step", field.opts.Step)
	}
	v.SetDefault("render.style.border_width", s.BorderWidth)
	v.SetDefault("render.style.date_format", s.DateFormat)
}

func loadLayout(v *viper.Viper) printing.LabelLayout {
	return printing.LabelLayout{
		PageWidth:         v.GetFloat64("render.layout.page_width"),
		PageHeight:        v.GetFloat64("render.layout.page_height"),
		LabelWidth:        v.GetFloat64("render.layout.label_width"),
		LabelHeight:       v.GetFloat64("render.layout.label_height"),
		TopMargin:         v.GetFloat64("render.layout.top_margin"),
		LeftMargin:        v.GetFloat64("render.layout.left_margin"),
		RowsPerPage:       v.GetInt("render.layout.rows_per_page"),
		ColsPerPage:       v.GetInt("render.layout.cols_per_page"),
		Padding:           v.GetFloat64("render.layout.padding"),
		InfoColumnWidth:   v.GetFloat64("render.layout.info_column_width"),
		InfoLineHeight:    v.GetFloat64("render.layout.info_line_height"),
		MetricLineHeight:  v.GetFloat64("render.layout.metric_line_height"),
		MetricColumnWidth: v.GetFloat64("render.layout.metric_column_width"),
		BarcodeHeight:     v.GetFloat64("render.layout.barcode_height"),
	}
}

func loadStyle(v *viper.Viper) printing.LabelStyle {
	shrink := func(key string) printing.ShrinkOptions {
		prefix := "render.style." + key + "."
		return printing.ShrinkOptions{
			LabelSize: v.GetFloat64(prefix + "label_size"),
			BaseSize:  v.GetFloat64(prefix + "base_size"),
			FloorSize: v.GetFloat64(prefix + "floor_size"),
			Step:      v.GetFloat64(prefix + "step"),
		}
	}
	return printing.LabelStyle{
		Name: printing.FitOptions{
			MinSize:       v.GetFloat64("render.style.name.min_size"),
			MaxSize:       v.GetFloat64("render.style.name.max_size"),
			MaxLines:      v.GetInt("render.style.name.max_lines"),
			Tolerance:     v.GetFloat64("render.style.name.tolerance"),
			MaxIterations: v.GetInt("render.style.name.max_iterations"),
		},
		Info:        shrink("info"),
		Metric:      shrink("metric"),
		BorderWidth: v.GetFloat64("render.style.border_width"),
		DateFormat:  v.GetString("render.style.date_format"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "label-printing"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "inventory"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Large jobs render for a while
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = "https://www.zohoapis.eu/inventory/v1"
	}
	if cfg.Catalog.AuthScheme == "" {
		cfg.Catalog.AuthScheme = "Zoho-oauthtoken"
	}
	if cfg.Catalog.PerPage == 0 {
		cfg.Catalog.PerPage = 200
	}
	if cfg.Catalog.Concurrency == 0 {
		cfg.Catalog.Concurrency = 4
	}
	if cfg.Catalog.MaxPages == 0 {
		cfg.Catalog.MaxPages = 500
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 30 * time.Second
	}
	if cfg.Catalog.RetryWait == 0 {
		cfg.Catalog.RetryWait = 500 * time.Millisecond
	}
	if cfg.Catalog.TokenKey == "" {
		cfg.Catalog.TokenKey = "catalog:access_token"
	}
	if cfg.Catalog.TokenTTL == 0 {
		cfg.Catalog.TokenTTL = 5 * time.Minute
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 60 * time.Second
	}
	if cfg.Render.Engine == "" {
		cfg.Render.Engine = printing.EngineFpdf
	}
	if cfg.Render.Chromedp.Timeout == 0 {
		cfg.Render.Chromedp.Timeout = 60 * time.Second
	}
	if cfg.Render.Chromedp.Scale == 0 {
		cfg.Render.Chromedp.Scale = 1.0
	}
	if cfg.Scheduler.JobRetention == 0 {
		cfg.Scheduler.JobRetention = 30 * 24 * time.Hour
	}
	if cfg.Scheduler.SweepInterval == 0 {
		cfg.Scheduler.SweepInterval = time.Hour
	}
	if cfg.Scheduler.SweepTimeout == 0 {
		cfg.Scheduler.SweepTimeout = 5 * time.Minute
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("catalog.base_url is not a valid URL: %w", err)
	}
	if c.Catalog.PerPage < 0 || c.Catalog.Concurrency < 0 || c.Catalog.MaxPages < 0 {
		return fmt.Errorf("catalog.per_page, catalog.concurrency and catalog.max_pages cannot be negative")
	}
	if c.Catalog.StaticToken == "" && !c.Redis.Enabled && c.App.Env == "production" {
		return fmt.Errorf("catalog.static_token or redis.enabled is required in production")
	}

	switch c.Render.Engine {
	case printing.EngineFpdf, printing.EngineChromedp:
	default:
		return fmt.Errorf("render.engine must be %q or %q, got %q", printing.EngineFpdf, printing.EngineChromedp, c.Render.Engine)
	}
	if err := c.Render.Layout.Validate(); err != nil {
		return fmt.Errorf("render.layout: %w", err)
	}
	if err := c.Render.Style.Validate(); err != nil {
		return fmt.Errorf("render.style: %w", err)
	}

	if c.Scheduler.RetentionEnabled && c.Scheduler.JobRetention <= 0 {
		return fmt.Errorf("scheduler.job_retention must be positive when retention is enabled")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
