package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader 多数据源配置加载器，按优先级从低到高合并后交给 viper 解析
type Loader struct {
	sources     []ConfigSource
	merged      map[string]any
	v           *viper.Viper
	loadedFiles []string
}

func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]any),
		v:      viper.New(),
	}
}

// AddSource 添加数据源
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load 加载并合并所有数据源（高优先级覆盖低优先级）
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]any)
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("加载数据源 %s 失败: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && len(data) > 0 {
			l.loadedFiles = append(l.loadedFiles, fs.path)
		}
		for k, v := range data {
			l.merged[k] = v
		}
	}

	l.v = viper.New()
	for key, value := range unflattenMap(l.merged) {
		l.v.Set(key, value)
	}
	return nil
}

// Unmarshal 解析到结构体（mapstructure tag）
func (l *Loader) Unmarshal(v any) error {
	return l.v.Unmarshal(v)
}

// UnmarshalKey 解析单个配置段
func (l *Loader) UnmarshalKey(key string, v any) error {
	return l.v.UnmarshalKey(key, v)
}

func (l *Loader) Get(key string) any          { return l.v.Get(key) }
func (l *Loader) GetString(key string) string { return l.v.GetString(key) }
func (l *Loader) GetInt(key string) int       { return l.v.GetInt(key) }
func (l *Loader) GetBool(key string) bool     { return l.v.GetBool(key) }
func (l *Loader) IsSet(key string) bool       { return l.v.IsSet(key) }

// GetLoadedFiles 实际读到内容的配置文件
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// GetViper 底层 viper 实例
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func unflattenMap(flat map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		current := result
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = value
	}
	return result
}

// Options 标准加载器参数
type Options struct {
	ConfigDir string         // 目录下的 config.yaml 与 <env>.yaml
	EnvPrefix string         // 环境变量前缀，如 FEED
	Overrides map[string]any // 命令行覆盖
}

// Build 按标准优先级组装并加载
func Build(opts Options) (*Loader, error) {
	loader := NewLoader()
	if opts.ConfigDir != "" {
		loader.AddSource(NewFileSource(filepath.Join(opts.ConfigDir, "config.yaml"), 10))
		loader.AddSource(NewFileSource(filepath.Join(opts.ConfigDir, GetEnv()+".yaml"), 20))
	}
	if opts.EnvPrefix != "" {
		loader.AddSource(NewEnvSource(opts.EnvPrefix, 50))
	}
	if len(opts.Overrides) > 0 {
		loader.AddSource(NewMapSource("flags", 100, opts.Overrides))
	}
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv 运行环境（APP_ENV > ENV > dev）
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}

// Validator 配置校验接口（各模块实现）
type Validator interface {
	Validate() error
}

// ValidateAll 依次校验，返回第一个错误
func ValidateAll(validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
