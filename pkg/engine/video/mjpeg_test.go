package video

import (
	"bytes"
	"io"
	"testing"
)

func jpegFrame(payload ...byte) []byte {
	f := append([]byte{0xFF, 0xD8}, payload...)
	return append(f, 0xFF, 0xD9)
}

func TestFrameScannerSplitsStream(t *testing.T) {
	a := jpegFrame(0x01, 0x02)
	b := jpegFrame(0x03)
	s := newFrameScanner(bytes.NewReader(append(append([]byte{}, a...), b...)))

	got, err := s.Next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if !bytes.Equal(got, a) {
		t.Errorf("first frame = %v, want %v", got, a)
	}

	got, err = s.Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Errorf("second frame = %v, want %v", got, b)
	}

	if _, err := s.Next(); err != io.EOF {
		t.Errorf("trailing read err = %v, want EOF", err)
	}
}

func TestFrameScannerSkipsGarbagePrefix(t *testing.T) {
	frame := jpegFrame(0x42)
	stream := append([]byte{0x00, 0x11, 0x22}, frame...)
	s := newFrameScanner(bytes.NewReader(stream))

	got, err := s.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("frame = %v, want %v", got, frame)
	}
}

func TestFrameScannerTruncatedFrame(t *testing.T) {
	// SOI with no EOI.
	s := newFrameScanner(bytes.NewReader([]byte{0xFF, 0xD8, 0x01, 0x02}))
	if _, err := s.Next(); err != io.ErrUnexpectedEOF {
		t.Errorf("err = %v, want ErrUnexpectedEOF", err)
	}
}

func TestFrameScannerEmptyStream(t *testing.T) {
	s := newFrameScanner(bytes.NewReader(nil))
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("err = %v, want EOF", err)
	}
}
