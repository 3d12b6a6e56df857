package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/spf13/viper"

	"github.com/macwinctl/macwinctl/internal/logging"
)

var log = logging.L("config")

// Config is the daemon's full runtime configuration, loaded from
// macwinctl.yaml plus MACWINCTL_-prefixed environment overrides.
type Config struct {
	Name string `mapstructure:"name"`

	TCPPort int `mapstructure:"tcp_port"`
	UDPPort int `mapstructure:"udp_port"`

	RemoteEdge string `mapstructure:"remote_edge"`

	ThresholdPx          int     `mapstructure:"threshold_px"`
	Sensitivity          float64 `mapstructure:"sensitivity"`
	ReturnCooldownMs     int64   `mapstructure:"return_cooldown_ms"`
	ReturnInwardPx       int     `mapstructure:"return_inward_px"`
	TickMs               int     `mapstructure:"tick_ms"`
	DebugSnapshotTicks   int     `mapstructure:"debug_snapshot_ticks"`

	BeaconIntervalSeconds  int `mapstructure:"beacon_interval_seconds"`
	LivenessWindowSeconds  int `mapstructure:"liveness_window_seconds"`

	ClipboardSyncEnabled bool `mapstructure:"clipboard_sync_enabled"`
	ClipboardPollMs      int  `mapstructure:"clipboard_poll_ms"`

	RPCAddr         string `mapstructure:"rpc_addr"`
	RPCNamedPipe    bool   `mapstructure:"rpc_named_pipe"`
	RPCPipeName     string `mapstructure:"rpc_pipe_name"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// Default returns the configuration used when no file or env override is
// present, matching the constants named throughout the spec.
func Default() *Config {
	return &Config{
		TCPPort:    52525,
		UDPPort:    52526,
		RemoteEdge: "right",

		ThresholdPx:        10,
		Sensitivity:        1.5,
		ReturnCooldownMs:   500,
		ReturnInwardPx:     50,
		TickMs:             8,
		DebugSnapshotTicks: 25,

		BeaconIntervalSeconds: 2,
		LivenessWindowSeconds: 6,

		ClipboardSyncEnabled: true,
		ClipboardPollMs:      500,

		RPCAddr:      "127.0.0.1:52527",
		RPCNamedPipe: runtime.GOOS == "windows",
		RPCPipeName:  `\\.\pipe\macwinctl-rpc`,

		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  20,
		LogMaxBackups: 3,
	}
}

// Load reads macwinctl.yaml (or cfgFile if given) plus environment overrides
// under the MACWINCTL_ prefix, validates tiered (fatal vs warning), and
// returns the resulting config.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("macwinctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MACWINCTL")
	cfgType := reflect.TypeOf(*cfg)
	for i := 0; i < cfgType.NumField(); i++ {
		if key := cfgType.Field(i).Tag.Get("mapstructure"); key != "" {
			_ = viper.BindEnv(key)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("name", cfg.Name)
	viper.Set("tcp_port", cfg.TCPPort)
	viper.Set("udp_port", cfg.UDPPort)
	viper.Set("remote_edge", cfg.RemoteEdge)
	viper.Set("sensitivity", cfg.Sensitivity)
	viper.Set("threshold_px", cfg.ThresholdPx)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "macwinctl.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	return os.Chmod(cfgPath, 0600)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "macwinctl")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "macwinctl")
	default:
		return "/etc/macwinctl"
	}
}
