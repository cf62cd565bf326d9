// Package flagx 基于 struct tag 的命令行参数绑定
//
// 字段 tag：
//   - flag: 参数名，可带短名，如 "port,p"
//   - usage: 帮助文本
//   - default: 默认值
//   - config: 对应的配置键（如 server.port），用于生成配置覆盖
//
// 示例：
//
//	type ServeFlags struct {
//	    Port int    `flag:"port,p" config:"server.port" usage:"监听端口"`
//	    Mode string `flag:"mode" config:"server.mode" usage:"gin 模式"`
//	}
//
//	var f ServeFlags
//	flagx.BindFlags(cmd.Flags(), &f)
//	overrides, _ := flagx.Overrides(cmd.Flags(), &f)
package flagx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var durationType = reflect.TypeOf(time.Duration(0))

type fieldSpec struct {
	index     int
	name      string
	short     string
	usage     string
	def       string
	configKey string
}

func specs(target any) (reflect.Value, []fieldSpec, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("target must be a pointer to struct")
	}
	v = v.Elem()
	t := v.Type()

	var out []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("flag")
		if tag == "" || !f.IsExported() {
			continue
		}
		name, short, _ := strings.Cut(tag, ",")
		out = append(out, fieldSpec{
			index:     i,
			name:      name,
			short:     short,
			usage:     f.Tag.Get("usage"),
			def:       f.Tag.Get("default"),
			configKey: f.Tag.Get("config"),
		})
	}
	return v, out, nil
}

// BindFlags 按字段注册参数
func BindFlags(fs *pflag.FlagSet, target any) error {
	v, fields, err := specs(target)
	if err != nil {
		return err
	}
	for _, s := range fields {
		if err := registerFlag(fs, v.Field(s.index).Type(), s); err != nil {
			return fmt.Errorf("bind field %s: %w", v.Type().Field(s.index).Name, err)
		}
	}
	return nil
}

func registerFlag(fs *pflag.FlagSet, typ reflect.Type, s fieldSpec) error {
	if typ == durationType {
		var def time.Duration
		if s.def != "" {
			d, err := time.ParseDuration(s.def)
			if err != nil {
				return fmt.Errorf("default %q: %w", s.def, err)
			}
			def = d
		}
		fs.DurationP(s.name, s.short, def, s.usage)
		return nil
	}

	switch typ.Kind() {
	case reflect.String:
		fs.StringP(s.name, s.short, s.def, s.usage)

	case reflect.Int:
		def := 0
		if s.def != "" {
			n, err := strconv.Atoi(s.def)
			if err != nil {
				return fmt.Errorf("default %q: %w", s.def, err)
			}
			def = n
		}
		fs.IntP(s.name, s.short, def, s.usage)

	case reflect.Bool:
		def := false
		if s.def != "" {
			b, err := strconv.ParseBool(s.def)
			if err != nil {
				return fmt.Errorf("default %q: %w", s.def, err)
			}
			def = b
		}
		fs.BoolP(s.name, s.short, def, s.usage)

	case reflect.Slice:
		if typ.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", typ.Elem().Kind())
		}
		var def []string
		if s.def != "" {
			def = strings.Split(s.def, ",")
		}
		fs.StringSliceP(s.name, s.short, def, s.usage)

	default:
		return fmt.Errorf("unsupported field type: %s", typ.Kind())
	}
	return nil
}

// ParseFlags 把参数值回填到结构体（类似 gin 的 ShouldBind）
func ParseFlags(fs *pflag.FlagSet, target any) error {
	v, fields, err := specs(target)
	if err != nil {
		return err
	}
	for _, s := range fields {
		val, err := flagValue(fs, v.Field(s.index).Type(), s.name)
		if err != nil {
			return fmt.Errorf("parse field %s: %w", v.Type().Field(s.index).Name, err)
		}
		v.Field(s.index).Set(reflect.ValueOf(val).Convert(v.Field(s.index).Type()))
	}
	return nil
}

// Overrides 只收集命令行上显式设置过且带 config tag 的参数
//
// 返回值直接作为 config.Options.Overrides，未设置的参数不会覆盖配置文件。
func Overrides(fs *pflag.FlagSet, target any) (map[string]any, error) {
	v, fields, err := specs(target)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	for _, s := range fields {
		if s.configKey == "" || !fs.Changed(s.name) {
			continue
		}
		val, err := flagValue(fs, v.Field(s.index).Type(), s.name)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", s.configKey, err)
		}
		out[s.configKey] = val
	}
	return out, nil
}

func flagValue(fs *pflag.FlagSet, typ reflect.Type, name string) (any, error) {
	if typ == durationType {
		return fs.GetDuration(name)
	}
	switch typ.Kind() {
	case reflect.String:
		return fs.GetString(name)
	case reflect.Int:
		return fs.GetInt(name)
	case reflect.Bool:
		return fs.GetBool(name)
	case reflect.Slice:
		return fs.GetStringSlice(name)
	default:
		return nil, fmt.Errorf("unsupported field type: %s", typ.Kind())
	}
}
