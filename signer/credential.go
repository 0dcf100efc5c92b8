package signer

import "strings"

// ParseCredential splits "PREFIX k1=v1,k2=v2" into a map. It returns nil only
// when raw does not start with prefix followed by a space; an empty pair list
// gives an empty map.
//
// Whitespace around keys, values, '=' and ',' is ignored. A value wrapped in
// a matching pair of double quotes loses the quotes but keeps its inner
// whitespace; a lone quote stays part of the value. Pairs without a key or
// value are dropped, unknown keys are kept and the last duplicate wins.
func ParseCredential(raw, prefix string) map[string]string {
	if prefix == "" || !strings.HasPrefix(raw, prefix+" ") {
		return nil
	}
	result := make(map[string]string)
	for _, pair := range strings.Split(raw[len(prefix)+1:], ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if key == "" || value == "" {
			continue
		}
		result[key] = value
	}
	return result
}

func unquote(v string) string {
	if len(v) > 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
