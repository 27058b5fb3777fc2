package controllers

import (
	"fmt"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/response"
)

// EnvVar is one environment entry as reported by EnvDump.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EnvDump reports the request environment in build order. String values
// are shown as-is, streams by type and everything else via %v.
var EnvDump = gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
	vars := make([]EnvVar, 0, env.Len())
	env.Each(func(key string, v any) bool {
		vars = append(vars, EnvVar{Key: key, Value: describe(v)})
		return true
	})
	return response.Success(vars), nil
})

func describe(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool, int, int64, [2]int:
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%T", t)
	}
}
