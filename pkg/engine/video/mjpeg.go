package video

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single JPEG frame; anything larger means the
// stream is corrupt or not MJPEG at all.
const maxFrameBytes = 8 << 20

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// frameScanner splits a concatenated MJPEG byte stream into individual
// JPEG frames by scanning for start and end markers.
type frameScanner struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func newFrameScanner(r io.Reader) *frameScanner {
	return &frameScanner{r: bufio.NewReaderSize(r, 64<<10)}
}

// Next returns the next complete JPEG frame. It returns io.EOF when the
// stream ends cleanly between frames.
func (s *frameScanner) Next() ([]byte, error) {
	s.buf.Reset()

	// Skip to the start-of-image marker.
	if err := s.seekSOI(); err != nil {
		return nil, err
	}
	s.buf.Write(jpegSOI)

	var prev byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		s.buf.WriteByte(b)
		if s.buf.Len() > maxFrameBytes {
			return nil, fmt.Errorf("video: frame exceeds %d bytes, stream is not mjpeg", maxFrameBytes)
		}
		if prev == jpegEOI[0] && b == jpegEOI[1] {
			frame := make([]byte, s.buf.Len())
			copy(frame, s.buf.Bytes())
			return frame, nil
		}
		prev = b
	}
}

func (s *frameScanner) seekSOI() error {
	var prev byte
	skipped := 0
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == jpegSOI[0] && b == jpegSOI[1] {
			return nil
		}
		prev = b
		skipped++
		if skipped > maxFrameBytes {
			return fmt.Errorf("video: no jpeg start marker in %d bytes", maxFrameBytes)
		}
	}
}
