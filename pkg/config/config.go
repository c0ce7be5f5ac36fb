package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/moyu-x/dropwatch/internal"
)

type Config struct {
	Vault struct {
		Path string
	}
	DryRun    bool `mapstructure:"dry_run"`
	Stability struct {
		Interval  time.Duration
		MaxChecks int `mapstructure:"max_checks"`
	}
	Batch struct {
		Window    time.Duration
		QueueSize int `mapstructure:"queue_size"`
	}
	Performance struct {
		Workers int
	}
	Hash struct {
		Algorithm string
	}
	Database struct {
		Path string
	}
	Logging struct {
		Level string
		File  string
	}
}

// Load 读取配置文件与环境变量
// 查找顺序: $HOME/.dropwatch, 当前目录, /etc/dropwatch；配置文件不存在不算错误
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("$HOME/.dropwatch")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/dropwatch")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFile 从指定文件读取配置
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vault.path", internal.DefaultVaultPath)
	v.SetDefault("dry_run", false)
	v.SetDefault("stability.interval", internal.DefaultStabilityInterval)
	v.SetDefault("stability.max_checks", internal.DefaultMaxStabilityChecks)
	v.SetDefault("batch.window", internal.DefaultBatchWindow)
	v.SetDefault("batch.queue_size", internal.DefaultBufferSize)
	v.SetDefault("performance.workers", internal.DefaultWorkers)
	v.SetDefault("hash.algorithm", "sha256")
	v.SetDefault("database.path", "")
	v.SetDefault("logging.level", "info")

	// 兼容原有环境变量
	_ = v.BindEnv("vault.path", "VAULT_PATH")
	_ = v.BindEnv("dry_run", "DRY_RUN")

	v.SetEnvPrefix("DROPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
