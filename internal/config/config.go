// Package config assembles application options from defaults, an optional
// JSON file, command-line flags, a .env file and environment variables.
//
// Precedence, lowest first: defaults, JSON file, explicitly set flags,
// environment.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// ResultHostname is the base URL used for result links.
	ResultHostname string `json:"base_url"`

	// FilePath is the path to the journal file of the file store.
	FilePath string `json:"file_storage_path"`

	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string `json:"database_dsn"`

	// SQLitePath selects the embedded SQLite store.
	SQLitePath string `json:"sqlite_path"`

	EnablePprof bool `json:"enable_pprof"`
	EnableHTTPS bool `json:"enable_https"`

	// TrustedSubnet is the CIDR allowed to call administrative endpoints.
	TrustedSubnet string `json:"trusted_subnet"`

	GRPCPort string `json:"grpc_port"`

	LogLevel       string `json:"log_level"`
	LogDevelopment bool   `json:"log_development"`

	JWTSecret string `json:"jwt_secret"`

	// RedisAddr switches the rate limiter to a shared Redis store.
	RedisAddr string `json:"redis_addr"`

	// RateLimit is a formatted rate such as "100-M"; empty disables limiting.
	RateLimit string `json:"rate_limit"`

	// TrustForwardHeader keys the rate limiter on X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustForwardHeader bool `json:"trust_forward_header"`

	CodeLength   int    `json:"code_length"`
	CodeAlphabet string `json:"code_alphabet"`

	DefaultExpirationDays int `json:"default_expiration_days"`
	MaxExpirationDays     int `json:"max_expiration_days"`
	MaxClickCount         int `json:"max_click_count"`

	PoolMinSize   int `json:"pool_min_size"`
	PoolMaxSize   int `json:"pool_max_size"`
	PoolBatchSize int `json:"pool_batch_size"`

	// ExpirySweepSeconds is the sweep period; 0 disables the sweeper.
	ExpirySweepSeconds int `json:"expiry_sweep_seconds"`

	// Config is the path of the JSON file that was loaded, if any.
	Config string `json:"-"`
}

// Default returns the built-in defaults.
func Default() *Options {
	return &Options{
		Port:                  "localhost:8080",
		ResultHostname:        "http://localhost:8080",
		GRPCPort:              ":3200",
		LogLevel:              "info",
		CodeLength:            7,
		CodeAlphabet:          "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789",
		DefaultExpirationDays: 30,
		MaxExpirationDays:     365,
		MaxClickCount:         1000,
		PoolMinSize:           100,
		PoolMaxSize:           500,
		PoolBatchSize:         50,
		ExpirySweepSeconds:    60,
	}
}

// flags holds raw flag values; only explicitly set ones are applied.
var flags = Default()

var configFlag string

func init() {
	flag.StringVar(&flags.Port, "a", flags.Port, "run on ip:port server")
	flag.StringVar(&flags.ResultHostname, "b", flags.ResultHostname, "result base url")
	flag.StringVar(&flags.FilePath, "f", "", "path to storage file")
	flag.StringVar(&flags.DatabaseDSN, "d", "", "postgres dsn")
	flag.StringVar(&flags.SQLitePath, "q", "", "path to sqlite database")
	flag.BoolVar(&flags.EnablePprof, "p", false, "enable pprof")
	flag.BoolVar(&flags.EnableHTTPS, "s", false, "enable https")
	flag.StringVar(&flags.TrustedSubnet, "t", "", "trusted subnet (CIDR)")
	flag.StringVar(&flags.GRPCPort, "g", flags.GRPCPort, "grpc listen address")
	flag.StringVar(&flags.LogLevel, "l", flags.LogLevel, "log level")
	flag.StringVar(&configFlag, "c", "", "path to json config")
}

// Parse builds a fresh Options on every call.
func Parse() (*Options, error) {
	if !flag.Parsed() {
		flag.Parse()
	}

	// a missing .env is fine; existing variables win over the file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	opts := Default()

	path := configFlag
	if env := os.Getenv("CONFIG"); env != "" {
		path = env
	}
	if path != "" {
		if err := loadFile(path, opts); err != nil {
			return nil, err
		}
		opts.Config = path
	}

	flag.Visit(func(f *flag.Flag) {
		applyFlag(f.Name, opts)
	})

	if err := applyEnv(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func loadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyFlag(name string, opts *Options) {
	switch name {
	case "a":
		opts.Port = flags.Port
	case "b":
		opts.ResultHostname = flags.ResultHostname
	case "f":
		opts.FilePath = flags.FilePath
	case "d":
		opts.DatabaseDSN = flags.DatabaseDSN
	case "q":
		opts.SQLitePath = flags.SQLitePath
	case "p":
		opts.EnablePprof = flags.EnablePprof
	case "s":
		opts.EnableHTTPS = flags.EnableHTTPS
	case "t":
		opts.TrustedSubnet = flags.TrustedSubnet
	case "g":
		opts.GRPCPort = flags.GRPCPort
	case "l":
		opts.LogLevel = flags.LogLevel
	}
}

func applyEnv(opts *Options) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":    &opts.Port,
		"BASE_URL":          &opts.ResultHostname,
		"FILE_STORAGE_PATH": &opts.FilePath,
		"DATABASE_DSN":      &opts.DatabaseDSN,
		"SQLITE_PATH":       &opts.SQLitePath,
		"TRUSTED_SUBNET":    &opts.TrustedSubnet,
		"GRPC_PORT":         &opts.GRPCPort,
		"LOG_LEVEL":         &opts.LogLevel,
		"JWT_SECRET":        &opts.JWTSecret,
		"REDIS_ADDR":        &opts.RedisAddr,
		"RATE_LIMIT":        &opts.RateLimit,
		"CODE_ALPHABET":     &opts.CodeAlphabet,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ENABLE_HTTPS":         &opts.EnableHTTPS,
		"ENABLE_PPROF":         &opts.EnablePprof,
		"LOG_DEVELOPMENT":      &opts.LogDevelopment,
		"TRUST_FORWARD_HEADER": &opts.TrustForwardHeader,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}

	ints := map[string]*int{
		"CODE_LENGTH":             &opts.CodeLength,
		"DEFAULT_EXPIRATION_DAYS": &opts.DefaultExpirationDays,
		"MAX_EXPIRATION_DAYS":     &opts.MaxExpirationDays,
		"MAX_CLICK_COUNT":         &opts.MaxClickCount,
		"POOL_MIN_SIZE":           &opts.PoolMinSize,
		"POOL_MAX_SIZE":           &opts.PoolMaxSize,
		"POOL_BATCH_SIZE":         &opts.PoolBatchSize,
		"EXPIRY_SWEEP_SECONDS":    &opts.ExpirySweepSeconds,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	return nil
}
