package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 YAML 配置并补全缺省值；path 为空时返回全缺省配置。
func Load(path string) (*Config, error) {
	var cfg Config
	set := make(explicitKeys)

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败 (%s): %w", path, err)
		}
		if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
			dc.WeaklyTypedInput = true
		}); err != nil {
			return nil, fmt.Errorf("解析配置失败: %w", err)
		}
		for _, key := range v.AllKeys() {
			set[key] = true
		}
	}

	cfg.applyDefaults(set)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
