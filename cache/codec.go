package cache

import (
	"github.com/goccy/go-json"
)

// Codec 缓存值编解码
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSONCodec 基于 goccy/go-json
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 空数据视为损坏
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrMalformedEntry.WithMsg("empty payload")
	}
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return "json"
}
