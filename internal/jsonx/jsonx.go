// Package jsonx is the single place JSON encoding is configured. It uses the
// Sonic encoder with its default (non HTML-escaping, unsorted) settings.
package jsonx

import "github.com/bytedance/sonic"

var api = sonic.ConfigDefault

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid reports whether data is a syntactically valid JSON document.
func Valid(data []byte) bool {
	return api.Valid(data)
}
