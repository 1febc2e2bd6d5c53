package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common"
	brc20config "github.com/gaze-network/brc20-indexer/modules/brc20/config"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/brc20-indexer/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	isInit bool
	mu     sync.Mutex
	config = &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		Network: common.NetworkMainnet,
		HTTPServer: HTTPServerConfig{
			Port: 8080,
			Logger: requestlogger.Config{
				SkipPaths: []string{"/", "/metrics"},
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Modules: Modules{
			BRC20: brc20config.Config{
				Database: "memory",
				Datasource: brc20config.DatasourceConfig{
					Type: "local",
					Path: "./blocks",
				},
				Changelog: brc20config.ChangelogConfig{
					Output: "local",
					Path:   "./changelog",
				},
			},
		},
	}
)

type Config struct {
	Logger     logger.Config    `mapstructure:"logger"`
	Network    common.Network   `mapstructure:"network"`
	HTTPServer HTTPServerConfig `mapstructure:"http_server"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Modules    Modules          `mapstructure:"modules"`
}

type HTTPServerConfig struct {
	Port   int                  `mapstructure:"port"`
	Logger requestlogger.Config `mapstructure:"logger"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"` // serves GET /metrics
}

type Modules struct {
	BRC20 brc20config.Config `mapstructure:"brc20"`
}

// Parse parses the configuration from the config file, environment variables and bound flags.
// If configFile is empty, "./config.yaml" is used when it exists.
func Parse(configFile ...string) Config {
	mu.Lock()
	defer mu.Unlock()
	return parse(configFile...)
}

func parse(configFile ...string) Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))

	if len(configFile) > 0 && configFile[0] != "" {
		viper.SetConfigFile(configFile[0])
	} else {
		viper.AddConfigPath("./")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		var errNotfound viper.ConfigFileNotFoundError
		if errors.As(err, &errNotfound) {
			logger.WarnContext(ctx, "Config file not found, use default config value", slogx.Error(err))
		} else {
			logger.PanicContext(ctx, "Invalid config file", slogx.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		logger.PanicContext(ctx, "Something went wrong, failed to unmarshal config", slogx.Error(err))
	}

	isInit = true
	return *config
}

// Load returns the parsed configuration, parsing it with defaults on first use.
func Load() Config {
	mu.Lock()
	defer mu.Unlock()
	if !isInit {
		return parse()
	}
	return *config
}

// BindPFlag binds a command line flag to a configuration key.
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("Something went wrong, failed to bind flag for config", slog.String("package", "config"), slogx.Error(err))
	}
}
