package blocks

import (
	"bytes"
	"encoding/json"
)

type wireBlock struct {
	Type  BlockType       `json:"type"`
	Props json.RawMessage `json:"props"`
}

// MarshalJSON encodes the block as {"type": ..., "props": {...}}
func (b Block) MarshalJSON() ([]byte, error) {
	props := json.RawMessage("{}")
	if b.Props != nil {
		encoded, err := encode(b.Props)
		if err != nil {
			return nil, err
		}
		props = encoded
	}
	t := b.Type
	if t == "" && b.Props != nil {
		t = b.Props.blockType()
	}
	return encode(wireBlock{Type: t, Props: props})
}

// UnmarshalJSON decodes any JSON value into a valid block through the
// normalizer, so it never returns an error.
func (b *Block) UnmarshalJSON(data []byte) error {
	*b = Normalize(data)
	return nil
}

// Serialize encodes a block list in the persisted array form. An empty or
// nil list encodes as "[]".
func Serialize(list []Block) (string, error) {
	if list == nil {
		list = []Block{}
	}
	data, err := encode(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
