package runner

import (
	"bufio"
	"context"
	"io"
	"sync"
)

type inputResult struct {
	text string
	err  error
}

// lineReader reads lines in a background pump so that Input can be abandoned
// when its context is cancelled.
type lineReader struct {
	reader    *bufio.Reader
	inputChan chan inputResult
	startOnce sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

func (l *lineReader) pump() {
	for {
		text, err := l.reader.ReadString('\n')
		if text != "" {
			l.inputChan <- inputResult{text: text}
		}
		if err != nil {
			l.inputChan <- inputResult{err: err}
			close(l.inputChan)
			return
		}
	}
}

// ReadLine returns the next line including its terminator.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.startOnce.Do(func() {
		l.inputChan = make(chan inputResult)
		go l.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.inputChan:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}
