package express

import (
	"net/url"
	"strings"
)

// ParamsKey is the attached-value key under which QueryString stores the
// parsed query parameters as a map[string]string.
const ParamsKey = "param"

// QueryString parses the query component of the request target and attaches
// it under ParamsKey. Repeated names are joined with commas in the order they
// appear. It always calls next.
//
// Pairs are split on '&' only and percent-decoded without form semantics:
// '+' and ';' are kept as literal characters. A pair without '=' has an
// empty value, and text that fails to decode is kept as received.
func QueryString(req *Request, res *Response, next Next) {
	req.SetValue(ParamsKey, parseQuery(req.RawQuery()))
	next()
}

func parseQuery(raw string) map[string]string {
	grouped := make(map[string][]string)
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		name, value = unescape(name), unescape(value)
		grouped[name] = append(grouped[name], value)
	}
	params := make(map[string]string, len(grouped))
	for name, vs := range grouped {
		params[name] = strings.Join(vs, ",")
	}
	return params
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
