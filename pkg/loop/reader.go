package loop

import (
	"bufio"
	"errors"
	"io"
)

// readResult is one unit handed from the reader goroutine to the loop.
type readResult struct {
	line []byte
	// size is the line length without its terminator, also for lines too
	// long to keep
	size    int
	tooLong bool
	err     error
}

// lineReader reads lines on request. It only reads after the loop asks for
// the next unit, so no input is consumed ahead of the handler.
type lineReader struct {
	br   *bufio.Reader
	max  int
	last int
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{br: bufio.NewReader(r), max: max}
}

func (lr *lineReader) serve(want <-chan struct{}, out chan<- readResult, done <-chan struct{}) {
	for {
		select {
		case <-want:
		case <-done:
			return
		}

		line, tooLong, err := lr.next()
		select {
		case out <- readResult{line: line, size: lr.last, tooLong: tooLong, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// next returns the next line without its terminator. A final line without a
// terminator is returned before io.EOF. Lines longer than max are drained
// and reported with tooLong set.
func (lr *lineReader) next() ([]byte, bool, error) {
	var line []byte
	tooLong := false
	size := 0
	lr.last = 0

	for {
		frag, err := lr.br.ReadSlice('\n')
		size += len(frag)
		content := size
		if err == nil {
			content--
		}
		if !tooLong && content > lr.max {
			tooLong = true
			line = nil
		}
		if !tooLong {
			line = append(line, frag...)
		}
		lr.last = content

		switch {
		case err == nil:
			return trimEOL(line), tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if size == 0 {
				return nil, false, io.EOF
			}
			return trimEOL(line), tooLong, nil
		default:
			return nil, false, err
		}
	}
}

func trimEOL(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	if line == nil {
		return []byte{}
	}
	return line[:n]
}
