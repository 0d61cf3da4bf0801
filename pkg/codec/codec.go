// Package codec converts between a (sender, text) pair and the frame stored
// in a segment: "<sender>: <text>".
//
// Decoding splits on the first separator, so a sender name that itself
// contains ": " misparses. Frames are neither escaped nor validated; this
// matches the C clients that share the same segments.
package codec

import (
	"bytes"
	"errors"
)

// Separator sits between the sender and the text of a frame.
const Separator = ": "

var ErrNotAMessage = errors.New("codec: frame has no sender separator")

// Encode builds the frame for sender and text.
func Encode(sender, text string) []byte {
	b := make([]byte, 0, len(sender)+len(Separator)+len(text))
	b = append(b, sender...)
	b = append(b, Separator...)
	b = append(b, text...)
	return b
}

// Decode splits raw on the first Separator. Everything after it, further
// separators included, belongs to the text.
func Decode(raw []byte) (sender, text string, err error) {
	i := bytes.Index(raw, []byte(Separator))
	if i < 0 {
		return "", "", ErrNotAMessage
	}
	return string(raw[:i]), string(raw[i+len(Separator):]), nil
}
