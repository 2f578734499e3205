package fetch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildURL joins base and path and appends the parameters as a query string.
// Keys are encoded in sorted order so equal parameter maps always produce
// the same URL. A path that is already absolute ignores the base.
func BuildURL(base, path string, params map[string]any) (string, error) {
	target := path
	if base != "" && !strings.Contains(path, "://") {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("fetch: parse url %q: %w", target, err)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			switch vv := v.(type) {
			case []string:
				for _, item := range vv {
					q.Add(k, item)
				}
			case []any:
				for _, item := range vv {
					q.Add(k, formatParam(item))
				}
			default:
				q.Add(k, formatParam(v))
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func formatParam(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
