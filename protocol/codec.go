package protocol

import "fmt"

// Codec turns messages into frames and back. Decode never panics and always
// reports failures as *DecodeError.
type Codec interface {
	Encode(m Message) ([]byte, error)
	Decode(data []byte) (Message, error)
}

var (
	_ Codec = Binary{}
	_ Codec = JSON{}
)

// guard turns a panic inside a decoder into a Malformed error.
func guard(m *Message, err *error) {
	if r := recover(); r != nil {
		*m = nil
		*err = &DecodeError{Kind: Malformed, Detail: fmt.Sprintf("decoder fault: %v", r)}
	}
}
