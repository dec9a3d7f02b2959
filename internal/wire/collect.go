package wire

import (
	"errors"
	"io"

	"github.com/wirebird/tern/provider"
)

// Decoder is the shape shared by the three wire decoders: a pull iterator
// over canonical events that reports io.EOF after the terminal event, plus
// the normalized stop reason once the stream has been drained.
type Decoder interface {
	Next() (provider.StreamEvent, error)
	StopReason() string
}

// Collect drains a decoder and returns its terminal MessageEnd. Intermediate
// events are discarded; a stream that ends in an error, or without a terminal
// event at all, returns that failure instead. Non-streaming calls use this to
// get a complete message out of any decoder.
func Collect(dec Decoder) (provider.MessageEnd, error) {
	for {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return provider.MessageEnd{}, errors.New("stream ended without a terminal event")
			}
			return provider.MessageEnd{}, err
		}

		switch ev := ev.(type) {
		case provider.MessageEnd:
			return ev, nil
		case provider.Error:
			return provider.MessageEnd{}, ev.Err
		}
	}
}
