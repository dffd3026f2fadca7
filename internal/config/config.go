// Package config loads the aisingest configuration from an optional YAML file and the environment.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ExtractorBuiltin = "builtin"
	Extractor7z      = "7za"
)

var (
	ErrInvalidWorkers   = errors.New("workers must be greater than 0")
	ErrInvalidExtractor = errors.New("extractor must be builtin or 7za")
	ErrMissingDatabase  = errors.New("database host and name must be set")
)

// Config holds the aisingest configuration.
type Config struct {
	// WorkDir is the working folder. Empty means derived from the folder of zips.
	WorkDir string `yaml:"workdir"`
	// Workers is the number of concurrent workers for extraction, validation and copy.
	Workers      int    `yaml:"workers"`
	Extractor    string `yaml:"extractor"`
	SevenZipPath string `yaml:"seven_zip_path"`
	// GraphFile, when set, receives a DOT drawing of each ingestion pipeline.
	GraphFile   string `yaml:"graph_file"`
	MetricsAddr string `yaml:"metrics_addr"`

	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

// Database holds the PostgreSQL connection settings.
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// Log holds the logger settings.
type Log struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Workers:      4,
		Extractor:    ExtractorBuiltin,
		SevenZipPath: "7za",
		Database: Database{
			Port:     5432,
			SSLMode:  "disable",
			MaxConns: 4,
		},
		Log: Log{
			Level:       "info",
			Environment: "development",
		},
	}
}

// Load reads path (when not empty) over the defaults, then applies environment overrides.
// It returns the names of the database variables that were not found in the environment.
func Load(path string) (*Config, []string, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to read config file %s", path)
		}
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to parse config file %s", path)
		}
	}

	missing, err := cfg.applyEnv(os.LookupEnv)
	if err != nil {
		return nil, nil, err
	}

	return cfg, missing, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) ([]string, error) {
	if v, ok := lookup("AISWORK"); ok && v != "" {
		c.WorkDir = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_ENV"); ok && v != "" {
		c.Log.Environment = v
	}
	if v, ok := lookup("DBSSLMODE"); ok && v != "" {
		c.Database.SSLMode = v
	}
	if v, ok := lookup("DBPORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid DBPORT %q", v)
		}
		c.Database.Port = port
	}

	var missing []string
	for _, env := range []struct {
		name string
		dst  *string
	}{
		{"DBHOSTNAME", &c.Database.Host},
		{"DBNAME", &c.Database.Name},
		{"DBUSER", &c.Database.User},
		{"DBUSERPASS", &c.Database.Password},
	} {
		v, ok := lookup(env.name)
		if !ok {
			if *env.dst == "" {
				missing = append(missing, env.name)
			}

			continue
		}
		*env.dst = v
	}

	return missing, nil
}

// Validate checks the configuration. withDB requires the database settings.
func (c *Config) Validate(withDB bool) error {
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Extractor != ExtractorBuiltin && c.Extractor != Extractor7z {
		return errors.Wrap(ErrInvalidExtractor, c.Extractor)
	}
	if withDB && (c.Database.Host == "" || c.Database.Name == "") {
		return ErrMissingDatabase
	}

	return nil
}

// ConnString returns a postgres URL for the database.
func (d Database) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	switch {
	case d.User != "" && d.Password != "":
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(int(d.MaxConns)))
	}
	u.RawQuery = q.Encode()

	return u.String()
}
