package protocol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON is the text-frame codec: {"v":1,"type":"join","table_id":"...","body":{...}}.
type JSON struct{}

type jsonEnvelope struct {
	V       int                 `json:"v"`
	Type    string              `json:"type"`
	TableID string              `json:"table_id,omitempty"`
	Seq     uint64              `json:"seq,omitempty"`
	Body    jsoniter.RawMessage `json:"body,omitempty"`
}

func (JSON) Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode nil message")
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonEnvelope{
		V:       Version,
		Type:    m.Kind().String(),
		TableID: TableOf(m),
		Seq:     seqOf(m),
		Body:    body,
	})
}

func (JSON) Decode(data []byte) (m Message, err error) {
	defer guard(&m, &err)
	if len(data) == 0 {
		return nil, malformed("empty frame", nil)
	}

	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("envelope", err)
	}
	if env.V != Version {
		return nil, &DecodeError{Kind: VersionMismatch, Detail: fmt.Sprintf("got v%d, want v%d", env.V, Version)}
	}
	k, ok := kindsByName[env.Type]
	if !ok {
		return nil, &DecodeError{Kind: UnknownVariant, Detail: fmt.Sprintf("type %q", env.Type)}
	}
	m = newMessage(k)
	if len(env.Body) > 0 && string(env.Body) != "null" {
		if err := json.Unmarshal(env.Body, m); err != nil {
			return nil, malformed(k.String()+" body", err)
		}
	}
	setEnvelope(m, env.TableID, env.Seq)
	return m, nil
}
