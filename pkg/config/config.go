// Package config loads stackresolve settings from layered TOML files and
// the environment.
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. [Default] values
//  2. the user file, ~/.config/stackresolve/config.toml
//  3. the project file, stackresolve.toml in the working directory or the
//     nearest parent directory holding one
//  4. environment variables (see [EnvLocalRepo] and friends)
//
// Command-line flags are applied by the CLI on top of the loaded Config.
// A key absent from a file keeps the value of the previous layer; lists
// such as repositories are replaced as a whole.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackresolve/pkg/download"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/integrations/s3"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/transfer"
)

// File names.
const (
	ProjectFile = "stackresolve.toml"
	UserFile    = "config.toml"
)

// Environment variables.
const (
	EnvLocalRepo    = "STACKRESOLVE_LOCAL_REPO"
	EnvOffline      = "STACKRESOLVE_OFFLINE"
	EnvRedisAddr    = "STACKRESOLVE_REDIS_ADDR"
	EnvMongoURI     = "STACKRESOLVE_MONGO_URI"
	EnvS3Endpoint   = "STACKRESOLVE_S3_ENDPOINT"
	EnvS3AccessKey  = "STACKRESOLVE_S3_ACCESS_KEY"
	EnvS3SecretKey  = "STACKRESOLVE_S3_SECRET_KEY"
	EnvServerAddr   = "STACKRESOLVE_ADDR"
	EnvConcurrency  = "STACKRESOLVE_CONCURRENCY"
	EnvChecksumMode = "STACKRESOLVE_CHECKSUM_POLICY"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config is the complete set of settings.
type Config struct {
	LocalRepository string              `toml:"local_repository"`
	Offline         bool                `toml:"offline"`
	Concurrency     int                 `toml:"concurrency"`
	ChecksumPolicy  string              `toml:"checksum_policy"`
	Repositories    []repository.Remote `toml:"repositories"`

	Cache    CacheConfig    `toml:"cache"`
	Transfer TransferConfig `toml:"transfer"`
	S3       s3.Config      `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
}

// CacheConfig selects the descriptor and metadata cache backend.
type CacheConfig struct {
	Backend    string   `toml:"backend"`
	Dir        string   `toml:"dir"`
	TTL        Duration `toml:"ttl"` // Lifetime of cached search responses
	MemorySize int      `toml:"memory_size"`
	RedisAddr  string   `toml:"redis_addr"`
	RedisDB    int      `toml:"redis_db"`
}

// TransferConfig tunes the transfer event multiplexer.
type TransferConfig struct {
	QueueSize int `toml:"queue_size"`
	BatchSize int `toml:"batch_size"`
}

// ServerConfig configures `stackresolve serve`.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	ReportCacheSize int    `toml:"report_cache_size"`
}

// Duration is a time.Duration written as a string such as "1h30m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LocalRepository: repository.DefaultBasedir(),
		Concurrency:     min(runtime.NumCPU()*2, 16),
		ChecksumPolicy:  string(download.ChecksumWarn),
		Repositories:    []repository.Remote{repository.Central()},
		Cache: CacheConfig{
			Backend:    CacheFile,
			TTL:        Duration{24 * time.Hour},
			MemorySize: 4096,
		},
		Transfer: TransferConfig{
			QueueSize: transfer.DefaultQueueSize,
			BatchSize: transfer.DefaultBatchSize,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MongoDatabase:   "stackresolve",
			ReportCacheSize: 256,
		},
	}
}

// LoadOptions locates the configuration sources. Zero values select the
// standard locations.
type LoadOptions struct {
	UserFile string              // Overrides ~/.config/stackresolve/config.toml
	WorkDir  string              // Start of the project file search (default: cwd)
	File     string              // Explicit file; replaces the project file search
	Getenv   func(string) string // Environment lookup (default: os.Getenv)
}

// Load builds the configuration from all layers and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	userFile := opts.UserFile
	if userFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			userFile = filepath.Join(dir, "stackresolve", UserFile)
		}
	}
	if userFile != "" {
		if err := cfg.mergeFile(userFile, false); err != nil {
			return nil, err
		}
	}

	projectFile := opts.File
	if projectFile == "" {
		projectFile = FindProjectFile(opts.WorkDir)
	}
	if projectFile != "" {
		if err := cfg.mergeFile(projectFile, opts.File != ""); err != nil {
			return nil, err
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path over c. A missing file is skipped unless required.
func (c *Config) mergeFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// FindProjectFile returns the nearest stackresolve.toml at or above dir,
// or "" if there is none.
func FindProjectFile(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectFile)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvLocalRepo); v != "" {
		c.LocalRepository = v
	}
	if v := getenv(EnvOffline); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", EnvOffline)
		}
		c.Offline = b
	}
	if v := getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", EnvConcurrency)
		}
		c.Concurrency = n
	}
	if v := getenv(EnvChecksumMode); v != "" {
		c.ChecksumPolicy = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Server.MongoURI = v
	}
	if v := getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvS3Endpoint); v != "" {
		c.S3.Endpoint = v
	}
	if v := getenv(EnvS3AccessKey); v != "" {
		c.S3.AccessKey = v
	}
	if v := getenv(EnvS3SecretKey); v != "" {
		c.S3.SecretKey = v
	}
	return nil
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if c.LocalRepository == "" {
		add("local_repository must be set")
	}
	if c.Concurrency < 1 {
		add("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := download.ParseChecksumPolicy(c.ChecksumPolicy); err != nil {
		add("checksum_policy: %v", err)
	}

	seen := make(map[string]bool, len(c.Repositories))
	usesS3 := false
	for i, r := range c.Repositories {
		if err := r.Validate(); err != nil {
			add("repositories[%d]: %v", i, err)
			continue
		}
		if seen[r.ID] {
			add("repositories[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
		usesS3 = usesS3 || r.Scheme() == s3.Scheme
	}
	if usesS3 {
		if err := c.S3.Validate(); err != nil {
			add("s3: %v", err)
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone, "":
	case CacheMemory:
		if c.Cache.MemorySize < 1 {
			add("cache.memory_size must be positive")
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			add("cache.redis_addr is required for the redis backend")
		}
	default:
		add("cache.backend: unknown backend %q (want file, memory, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		add("cache.ttl must not be negative")
	}

	if c.Transfer.QueueSize < 0 || c.Transfer.BatchSize < 0 {
		add("transfer queue_size and batch_size must not be negative")
	}
	if c.Server.ReportCacheSize < 0 {
		add("server.report_cache_size must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return errs.Wrap(errs.ErrCodeInvalidConfig, errors.Join(problems...), "invalid configuration")
}

// Write encodes c as TOML to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrCodeInternal, err, "encode %s", path)
	}
	return f.Close()
}
