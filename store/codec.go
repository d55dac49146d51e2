package store

import "fmt"

// EncodeValue flattens v into the single text token stored in a table cell.
func EncodeValue(v Value) (string, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("%w: encode: %w", ErrCodecFailure, err)
	}
	return string(data), nil
}

// DecodeValue parses a token written by EncodeValue.
func DecodeValue(token string) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON([]byte(token)); err != nil {
		return Value{}, fmt.Errorf("%w: decode %q: %w", ErrCodecFailure, abbreviate(token, 40), err)
	}
	return v, nil
}

// decodeCell is the lenient form used when reading rows: an empty cell is
// null and a malformed token comes back as a string holding the raw text.
func decodeCell(token string) (Value, bool) {
	if token == "" {
		return Null(), true
	}
	v, err := DecodeValue(token)
	if err != nil {
		return String(token), false
	}
	return v, true
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
