package bridge

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// BuildEnv converts a native request into a Normalized Environment.
//
// Parameters are copied in key order, then normalized: HTTP_CONTENT_TYPE and
// HTTP_CONTENT_LENGTH are dropped (CONTENT_TYPE / CONTENT_LENGTH carry
// them), a SCRIPT_NAME of "/" becomes "", an empty PATH_INFO is removed and
// QUERY_STRING defaults to "". errs is the error stream handed to the
// application; nil means os.Stderr.
func BuildEnv(req engine.Request, errs io.Writer) *gateway.Env {
	params := req.Params()

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := gateway.NewEnv(len(keys) + 8)
	for _, k := range keys {
		env.Set(k, params[k])
	}

	env.Delete("HTTP_CONTENT_TYPE")
	env.Delete("HTTP_CONTENT_LENGTH")

	if env.String(gateway.ScriptName) == "/" || !env.Has(gateway.ScriptName) {
		env.Set(gateway.ScriptName, "")
	}

	input := req.Body()
	if input == nil {
		input = strings.NewReader("")
	}
	if errs == nil {
		errs = os.Stderr
	}

	env.Set(gateway.KeyVersion, gateway.Version)
	env.Set(gateway.KeyInput, input)
	env.Set(gateway.KeyErrors, errs)
	env.Set(gateway.KeyMultithread, true)
	env.Set(gateway.KeyMultiprocess, false)
	env.Set(gateway.KeyRunOnce, false)
	env.Set(gateway.KeyURLScheme, "http")

	if !env.Has(gateway.QueryString) {
		env.Set(gateway.QueryString, "")
	}
	if v, ok := env.Get(gateway.PathInfo); ok && v == "" {
		env.Delete(gateway.PathInfo)
	}

	return env
}
