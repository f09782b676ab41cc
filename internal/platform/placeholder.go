package platform

import "strings"

// TranslatePositional rewrites every canonical "?" placeholder in sql into
// the backend's native positional form, built from prefix and a 1-based
// index (e.g. TranslatePositional(sql, "$") yields "$1", "$2", ... for
// postgres; TranslatePositional(sql, ":") yields ":1", ":2", ...). Only the
// postgres adapter calls it; the other adapters (mysql, sqlite, duckdb,
// snowflake) pass "?" through to their drivers unchanged.
func TranslatePositional(sql, prefix string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			n++
			b.WriteString(prefix)
			b.WriteString(itoa(n))
			continue
		}
		b.WriteByte(sql[i])
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
