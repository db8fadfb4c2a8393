// Package config loads server settings from the environment and the optional
// YAML holiday seed file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/warp/fulfillment-engine/calendar"
)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	Store      string `envconfig:"STORE" default:"sqlite"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"fulfillment.db"`
	MongoURI   string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB    string `envconfig:"MONGO_DB" default:"fulfillment"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Optional YAML file of company holidays saved at startup.
	HolidayFile string `envconfig:"HOLIDAY_FILE"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DB are required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown store %q (want sqlite, memory or mongo)", c.Store)
	}
	return nil
}

// =============================================================================
// HOLIDAY SEED FILE
// =============================================================================

// HolidayFile is the YAML shape of the holiday seed file:
//
//	holidays:
//	  - date: "2025-03-12"
//	    name: Founders Day
//	    recurring: true
type HolidayFile struct {
	Holidays []HolidayEntry `yaml:"holidays"`
}

type HolidayEntry struct {
	Date      string `yaml:"date"`
	Name      string `yaml:"name"`
	Recurring bool   `yaml:"recurring"`
}

// LoadHolidays parses the holiday seed file at path.
func LoadHolidays(path string) ([]calendar.Holiday, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseHolidays(data)
}

// ParseHolidays decodes holiday YAML. Every entry needs a valid date and a name.
func ParseHolidays(data []byte) ([]calendar.Holiday, error) {
	var file HolidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	holidays := make([]calendar.Holiday, 0, len(file.Holidays))
	for i, entry := range file.Holidays {
		date, err := calendar.ParseDate(strings.TrimSpace(entry.Date))
		if err != nil {
			return nil, fmt.Errorf("holiday %d: %w", i+1, err)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("holiday %d: name is required", i+1)
		}
		holidays = append(holidays, calendar.Holiday{Date: date, Name: name, Recurring: entry.Recurring})
	}
	return holidays, nil
}
