package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nstlib/nst/schema"
)

// Config is the YAML file every nstctl subcommand loads via --config: the
// database to open plus the SchemaSpec describing which columns on which
// table carry the tree.
type Config struct {
	DB       string            `yaml:"db"`
	MaxLevel int               `yaml:"max_level,omitempty"`
	Schema   schema.SchemaSpec `yaml:"schema"`
}

// LoadConfig reads and strictly decodes a Config file, rejecting unknown
// fields the same way the scenario loader does.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config file: %v", err)}
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing config: %v", err)}
	}

	if cfg.DB == "" {
		return nil, &LoadError{Code: ErrCodeInvalidConfig, Message: "config.db is required"}
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("building schema validator: %v", err)}
	}
	if err := validator.Validate(cfg.Schema); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("config.schema: %v", err)}
	}

	return &cfg, nil
}

// LoadError represents an error that occurred while loading a config file.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes nstctl reports through CLIError.Code / LoadError.Code.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E002" // Path not found
	ErrCodeLoadFailed    = "E003" // Config file could not be parsed
	ErrCodeInvalidConfig = "E004" // Config parsed but failed validation
	ErrCodeDatabase      = "E005" // Store open/query failure
	ErrCodeInvalidPath   = "E006" // Malformed dotted path argument
)
