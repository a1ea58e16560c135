package cache

import (
	"fmt"
	"strconv"
	"strings"
)

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A", ",", "%2C")

// Key joins a view kind and its effective parameters into a cache key.
// Parts are escaped so a ':' or ',' inside an id cannot make two different
// parameter sets collide. Nil pointers render as "-".
func Key(kind string, parts ...any) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(formatPart(p))
	}
	return b.String()
}

func formatPart(p any) string {
	switch v := p.(type) {
	case nil:
		return "-"
	case string:
		return keyEscaper.Replace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case *int:
		if v == nil {
			return "-"
		}
		return strconv.Itoa(*v)
	case []string:
		if len(v) == 0 {
			return "-"
		}
		escaped := make([]string, len(v))
		for i, s := range v {
			escaped[i] = keyEscaper.Replace(s)
		}
		return strings.Join(escaped, ",")
	case fmt.Stringer:
		return keyEscaper.Replace(v.String())
	default:
		return keyEscaper.Replace(fmt.Sprint(v))
	}
}

// kindOf returns the leading segment of a key, used as the metrics label.
func kindOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
