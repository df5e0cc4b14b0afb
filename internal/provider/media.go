package provider

import (
	"encoding/base64"
	"strings"
)

// decodeBase64Loose accepts both a bare base64 payload and a data URI
// (data:<mime>;base64,<payload>), and tolerates the URL-safe alphabet
// some gateways emit in place of standard base64.
func decodeBase64Loose(raw string) ([]byte, error) {
	payload := raw
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	payload = stripBase64Whitespace(payload)
	payload = strings.ReplaceAll(payload, "-", "+")
	payload = strings.ReplaceAll(payload, "_", "/")
	payload = padBase64(payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(payload)
}

func stripBase64Whitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

func padBase64(s string) string {
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}
