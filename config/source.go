package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigSource 配置数据源
// Load 返回点号分隔 key 的扁平 map，如 "redis.addr"
// 建议优先级：config.yaml 10 / <env>.yaml 20 / 环境变量 50 / 命令行 100
type ConfigSource interface {
	Name() string
	Priority() int
	Load() (map[string]any, error)
}

// FileSource 文件数据源（文件不存在时视为空配置）
type FileSource struct {
	path     string
	priority int
}

func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

func (s *FileSource) Name() string  { return "file:" + s.path }
func (s *FileSource) Priority() int { return s.priority }

func (s *FileSource) Load() (map[string]any, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("访问配置文件失败 %s: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败 %s: %w", s.path, err)
	}
	return flattenMap("", v.AllSettings()), nil
}

// EnvSource 环境变量数据源
// 层级用双下划线分隔，单下划线保留：FEED_CACHE__KEY_PREFIX -> cache.key_prefix
type EnvSource struct {
	prefix   string
	priority int
}

func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{prefix: prefix, priority: priority}
}

func (s *EnvSource) Name() string  { return "env:" + s.prefix }
func (s *EnvSource) Priority() int { return s.priority }

func (s *EnvSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		configKey := strings.ToLower(strings.TrimPrefix(key, prefix))
		configKey = strings.ReplaceAll(configKey, "__", ".")
		if configKey != "" {
			result[configKey] = value
		}
	}
	return result, nil
}

// MapSource 固定键值数据源（命令行参数覆盖）
type MapSource struct {
	name     string
	priority int
	values   map[string]any
}

// NewMapSource 空值（nil 或 ""）的 key 会被忽略，未显式设置的 flag 不覆盖文件配置
func NewMapSource(name string, priority int, values map[string]any) *MapSource {
	return &MapSource{name: name, priority: priority, values: values}
}

func (s *MapSource) Name() string  { return "map:" + s.name }
func (s *MapSource) Priority() int { return s.priority }

func (s *MapSource) Load() (map[string]any, error) {
	result := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		result[k] = v
	}
	return result, nil
}

// flattenMap {"redis": {"addr": "x"}} -> {"redis.addr": "x"}
func flattenMap(prefix string, data map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(fullKey, nested) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}
