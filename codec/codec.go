// Package codec centralizes payload encoding for semvault.
//
// Cached response payloads, metadata extra fields and warm-up files are
// encoded through a Codec. Codec selection is a compatibility boundary:
// payloads written under one codec may not decode under another, which the
// caches deliberately treat as a miss rather than an error.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Persisted artifacts that record their codec (e.g. warm-up files) are opened
// by selecting the codec by name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
