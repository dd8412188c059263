// internal/billing/codec.go
package billing

import (
	"encoding/json"
	"fmt"
)

// schemaVersion tags every stored record so the layout can evolve
// without guessing at old payloads.
const schemaVersion = 1

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

func encodeRecord(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return json.Marshal(envelope{V: schemaVersion, Data: data})
}

func decodeRecord(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode record envelope: %w", err)
	}
	if env.V != schemaVersion {
		return fmt.Errorf("decode record: unsupported schema version %d", env.V)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
