// Package encoding provides centralized serialization for stratum.
// Mutation log records go through Marshal/Unmarshal here; the rendered
// command list embedded inside a record goes through the escaped-string
// codec in escape.go.
//
// Thread Safety: all functions are safe for concurrent use.
package encoding

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes a value to msgpack format.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes msgpack data.
// When decoding into interface{}, strings are preserved as Go strings
// (not []byte) so text fields survive a round trip through loosely typed
// readers.
func Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	return dec.Decode(v)
}
