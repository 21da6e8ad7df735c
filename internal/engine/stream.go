package engine

import "io"

// StaticStream is a rag.TokenStream that yields a fixed text once and then
// reports io.EOF. Used for canned answers that never touch the model.
type StaticStream struct {
	text string
	done bool
}

// NewStaticStream constructs a StaticStream over the given text.
func NewStaticStream(text string) *StaticStream {
	return &StaticStream{text: text}
}

// Recv returns the text on the first call and io.EOF afterwards.
func (s *StaticStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

// Close is a no-op; StaticStream holds no resources.
func (s *StaticStream) Close() {}
