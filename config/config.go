package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rustyeddy/momentum/sim"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Batch      BatchConfig      `json:"batch" yaml:"batch"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// SimulationConfig contains the trade simulator parameters. Percentages
// are in percent units (1.0 = 1%).
type SimulationConfig struct {
	EntryRule       string  `json:"entry_rule" yaml:"entry_rule" validate:"required,eq=close_gt_prev" jsonschema:"title=Entry Rule,description=Entry signal (only close_gt_prev is supported),enum=close_gt_prev"`
	TakeProfitPct   float64 `json:"take_profit_pct" yaml:"take_profit_pct" validate:"gt=0" jsonschema:"title=Take Profit,description=Exit when the gain reaches this percent,exclusiveMinimum=0"`
	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct" validate:"gt=0" jsonschema:"title=Stop Loss,description=Exit when the loss reaches this percent,exclusiveMinimum=0"`
	StartingBalance float64 `json:"starting_balance" yaml:"starting_balance" validate:"gte=0" jsonschema:"title=Starting Balance,description=Balance used for position sizing,minimum=0"`
	RiskPct         float64 `json:"risk_pct" yaml:"risk_pct" validate:"gte=0,lte=100" jsonschema:"title=Risk Percent,description=Percent of balance committed per trade,minimum=0,maximum=100"`
	CloseAtEnd      bool    `json:"close_at_end" yaml:"close_at_end" jsonschema:"title=Close At End,description=Close a position still open on the last candle"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" validate:"oneof=csv sqlite none" jsonschema:"title=Journal Type,enum=csv,enum=sqlite,enum=none"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" validate:"required_if=Type csv" jsonschema:"title=Trades File,description=CSV trade log path"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" validate:"required_if=Type sqlite" jsonschema:"title=Database Path,description=SQLite journal path"`
}

// OutputConfig controls where per-run result files are written.
type OutputConfig struct {
	ResultsDir string `json:"results_dir" yaml:"results_dir" jsonschema:"title=Results Directory,description=Where backtest_results files are written"`
}

// BatchConfig controls directory batch runs.
type BatchConfig struct {
	Parallelism int `json:"parallelism" yaml:"parallelism" validate:"gte=1" jsonschema:"title=Parallelism,description=Symbols backtested at once,minimum=1"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error"`
}

// SimConfig converts the simulation section into a sim.Config.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		EntryRule:       c.Simulation.EntryRule,
		TakeProfitPct:   c.Simulation.TakeProfitPct,
		StopLossPct:     c.Simulation.StopLossPct,
		StartingBalance: c.Simulation.StartingBalance,
		RiskPct:         c.Simulation.RiskPct,
		CloseAtEnd:      c.Simulation.CloseAtEnd,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML). Missing
// fields keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	return nil
}

var fieldNames = map[string]string{
	"EntryRule":       "simulation.entry_rule",
	"TakeProfitPct":   "simulation.take_profit_pct",
	"StopLossPct":     "simulation.stop_loss_pct",
	"StartingBalance": "simulation.starting_balance",
	"RiskPct":         "simulation.risk_pct",
	"Type":            "journal.type",
	"TradesFile":      "journal.trades_file",
	"DBPath":          "journal.db_path",
	"Parallelism":     "batch.parallelism",
	"Level":           "log.level",
}

func fieldError(fe validator.FieldError) error {
	name, ok := fieldNames[fe.StructField()]
	if !ok {
		name = fe.Namespace()
	}

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", name)
	case "gt":
		return fmt.Errorf("%s must be positive", name)
	case "gte", "lte":
		return fmt.Errorf("%s is out of range (%s %s)", name, fe.Tag(), fe.Param())
	case "eq":
		return fmt.Errorf("%s must be %q", name, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", name, fe.Param())
	}
	return fmt.Errorf("%s failed %s validation", name, fe.Tag())
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	sc := sim.DefaultConfig()
	return &Config{
		Simulation: SimulationConfig{
			EntryRule:       sc.EntryRule,
			TakeProfitPct:   sc.TakeProfitPct,
			StopLossPct:     sc.StopLossPct,
			StartingBalance: sc.StartingBalance,
			RiskPct:         sc.RiskPct,
			CloseAtEnd:      sc.CloseAtEnd,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./logs/backtest_results/positions_sold.csv",
		},
		Output: OutputConfig{
			ResultsDir: ".",
		},
		Batch: BatchConfig{
			Parallelism: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GenerateSchema describes the config file format as JSON Schema.
func GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "momentum-config"
	schema.Description = "Configuration schema for momentum backtests"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	return schema
}

// GenerateSchemaJSON returns GenerateSchema as indented JSON.
func GenerateSchemaJSON() (string, error) {
	b, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
