package history

import "encoding/json"

// Codec is an interface for encoding and decoding records for a storage
// backend. This could be a JSON codec, a binary codec, or any other
// serialization format that makes sense for the backend.
type Codec interface {
	Encode(Record) ([]byte, error)
	Decode([]byte) (Record, error)
}

// Ensure JSONCodec implements Codec interface.
var _ Codec = (*JSONCodec)(nil)

// JSONCodec encodes and decodes records using standard Go JSON serialization.
type JSONCodec struct{}

// Encode encodes a record into a JSON byte slice for a storage backend.
func (c *JSONCodec) Encode(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// Decode decodes a JSON byte slice into a record from a storage backend.
func (c *JSONCodec) Decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
