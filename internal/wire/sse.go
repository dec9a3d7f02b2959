package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Frame is one Server-Sent-Events frame: the event name, when the frame
// carried an "event:" field, and the concatenated "data:" payload.
type Frame struct {
	Name string
	Data []byte
}

// Scanner reads SSE frames from a raw response body. It tolerates CRLF line
// endings, comment lines, and frames split at arbitrary byte offsets by the
// transport; a frame is only returned once its terminating blank line (or the
// end of the stream) arrives.
type Scanner struct {
	r *bufio.Reader
}

// NewScanner returns a Scanner over r. The read buffer starts at 64KiB and
// grows as needed, so oversized frames slow decoding down rather than
// breaking it.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
// A frame accumulated when the stream ends without a trailing blank line is
// still returned; io.EOF follows on the next call.
func (s *Scanner) Next() (Frame, error) {
	var (
		frame Frame
		data  [][]byte
		have  bool
	)

	for {
		line, err := s.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if err != nil {
			if len(line) > 0 {
				have = consumeField(line, &frame, &data) || have
			}
			if have {
				frame.Data = bytes.Join(data, []byte("\n"))
				return frame, nil
			}
			if errors.Is(err, io.EOF) {
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}

		if len(line) == 0 {
			if !have {
				continue
			}
			frame.Data = bytes.Join(data, []byte("\n"))
			return frame, nil
		}

		// Comment lines keep connections alive and carry nothing.
		if line[0] == ':' {
			continue
		}

		have = consumeField(line, &frame, &data) || have
	}
}

// consumeField folds one field line into the in-progress frame and reports
// whether the line carried a field worth emitting. Multiple data lines join
// with "\n" per the SSE format; id, retry, and unknown fields are ignored.
func consumeField(line []byte, frame *Frame, data *[][]byte) bool {
	field, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		field, value = line, nil
	}
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}

	switch string(field) {
	case "event":
		frame.Name = string(value)
		return true
	case "data":
		*data = append(*data, append([]byte(nil), value...))
		return true
	default:
		return false
	}
}
