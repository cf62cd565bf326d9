package telemetry

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/KOMKZ/go-yogan-feed/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// createResource service.* 与 deployment.environment 为默认属性，resource_attributes 可覆盖
func (m *Manager) createResource(ctx context.Context) (*resource.Resource, error) {
	values := map[string]string{
		"service.name":           m.config.ServiceName,
		"service.version":        m.config.ServiceVersion,
		"deployment.environment": config.GetEnv(),
	}
	for key, value := range flattenMap(m.config.ResourceAttrs, "") {
		values[key] = os.ExpandEnv(value)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, values[k]))
	}

	return resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
	)
}

// flattenMap {"deployment": {"region": "eu"}} => {"deployment.region": "eu"}
func flattenMap(m map[string]any, prefix string) map[string]string {
	result := make(map[string]string)
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			for nk, nv := range flattenMap(v, key) {
				result[nk] = nv
			}
		case string:
			result[key] = v
		default:
			result[key] = fmt.Sprint(v)
		}
	}
	return result
}
