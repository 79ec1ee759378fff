package console_parser

import "strings"

// A string ring buffer, contains the last size lines of FFMPEG log
type ringLogBuffer struct {
	// proper string buffer
	content []string
	// total array size
	size int
	// Index of the last line inserted
	currentIndex int
}

func NewRingLogBuffer(size int) *ringLogBuffer {
	return &ringLogBuffer{size: size, content: make([]string, size)}
}

func (rlb *ringLogBuffer) Push(str string) {
	rlb.content[rlb.currentIndex] = str
	rlb.currentIndex = (rlb.currentIndex + 1) % rlb.size
}

// String Buffered lines, oldest first
func (rlb *ringLogBuffer) String() string {
	ordered := append(append([]string(nil), rlb.content[rlb.currentIndex:]...), rlb.content[:rlb.currentIndex]...)
	var lines []string
	for _, l := range ordered {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
