package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	perr "batchcognito/internal/platform/errors"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML profile and returns a Conf scoped to prefix that consults the
// environment first and the file second.
//
// Tables flatten into env-style keys so a profile and the environment share one
// vocabulary:
//
//	[groups]
//	concurrency = 8     # same as <prefix>GROUPS_CONCURRENCY=8
//	retry-base  = "1s"  # same as <prefix>GROUPS_RETRY_BASE=1s
//
// An empty path yields an env-only Conf.
func Load(path, prefix string) (Conf, error) {
	c := Conf{prefix: prefix}
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return Conf{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "config load failed (%s)", path)
	}
	c.file = make(map[string]string)
	flatten(prefix, doc, c.file)
	return c, nil
}

// Keys lists the file-provided keys, sorted; used for debug logging of a profile
func (c Conf) Keys() []string {
	out := make([]string, 0, len(c.file))
	for k := range c.file {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := prefix + envName(k)
		switch tv := v.(type) {
		case map[string]any:
			flatten(key+"_", tv, out)
		default:
			out[key] = scalar(tv)
		}
	}
}

func envName(k string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(strings.TrimSpace(k)))
}

func scalar(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case time.Time:
		return tv.Format(time.RFC3339)
	case []any:
		parts := make([]string, 0, len(tv))
		for _, e := range tv {
			parts = append(parts, scalar(e))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(tv)
	}
}
