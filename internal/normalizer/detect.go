package normalizer

import (
	"encoding/json"
	"fmt"

	"wootrico/internal/provider"
)

// DetectDialect inspects the raw webhook body's top-level keys and
// returns which provider produced it. Each dialect has a distinct
// enough shape that no content inspection is needed:
//   - Z-API: top-level "momment" (their spelling) or "instanceId"
//   - Wuzapi: top-level "jsonData" (wrapping "Info"/"Message")
//   - UAZAPI: top-level "owner", or top-level "message" and "chatid"
func DetectDialect(raw []byte) (provider.Dialect, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", fmt.Errorf("normalizer: invalid JSON payload: %w", err)
	}

	if _, ok := probe["momment"]; ok {
		return provider.DialectZAPI, nil
	}
	if _, ok := probe["instanceId"]; ok {
		return provider.DialectZAPI, nil
	}
	if _, ok := probe["jsonData"]; ok {
		return provider.DialectWuzapi, nil
	}
	if _, hasOwner := probe["owner"]; hasOwner {
		return provider.DialectUAZAPI, nil
	}
	if _, hasMessage := probe["message"]; hasMessage {
		if _, hasChatID := probe["chatid"]; hasChatID {
			return provider.DialectUAZAPI, nil
		}
	}
	return "", fmt.Errorf("normalizer: could not detect provider dialect from payload")
}

// Normalize dispatches raw to the matching dialect extractor and
// returns a canonical NormalizedEvent.
func Normalize(raw []byte) (NormalizedEvent, error) {
	dialect, err := DetectDialect(raw)
	if err != nil {
		return NormalizedEvent{}, err
	}
	switch dialect {
	case provider.DialectZAPI:
		return normalizeZAPI(raw)
	case provider.DialectUAZAPI:
		return normalizeUAZAPI(raw)
	case provider.DialectWuzapi:
		return normalizeWuzapi(raw)
	default:
		return NormalizedEvent{}, fmt.Errorf("normalizer: unsupported dialect %q", dialect)
	}
}
