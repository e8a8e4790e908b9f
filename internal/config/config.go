package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Chat     DifyConfig     `mapstructure:"chat"`
	Workflow DifyConfig     `mapstructure:"workflow"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Mock     MockConfig     `mapstructure:"mock"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	// DSN 为空时云端镜像整体退化为空操作
	DSN string `mapstructure:"dsn"`
}

type StorageConfig struct {
	// DataDir 是本地会话存档目录，默认 ./data
	DataDir string `mapstructure:"data_dir"`
}

// DifyConfig 描述一个 Dify 后端目标，聊天应用和判决工作流可以使用不同的密钥
type DifyConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	WorkflowID string `mapstructure:"workflow_id"` // 仅判决工作流使用，可为空
}

// RelayConfig 描述云函数中转
type RelayConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// CloudOnly 为 true 时中转失败不再回退直连
	CloudOnly bool `mapstructure:"cloud_only"`
}

type MockConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NormalizeBaseURL 去掉末尾斜杠和多余的 /v1 后缀
// 历史配置里经常把 https://host/v1 整个填进来，这里统一收敛
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	for strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}
	s = strings.TrimSuffix(s, "/v1")
	for strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}

// LoadConfig 读取配置文件
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config") // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")   // 文件类型
	viper.AddConfigPath(".")      // 查找路径：根目录

	// 支持环境变量覆盖 (例如在 Docker 中)
	// 比如设置 LOVECOURT_WORKFLOW_API_KEY 可以覆盖 yaml 里的值
	viper.SetEnvPrefix("LOVECOURT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.Chat.BaseURL = NormalizeBaseURL(cfg.Chat.BaseURL)
	cfg.Workflow.BaseURL = NormalizeBaseURL(cfg.Workflow.BaseURL)
	cfg.Relay.BaseURL = NormalizeBaseURL(cfg.Relay.BaseURL)
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}

	return &cfg, nil
}
