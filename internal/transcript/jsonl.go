package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineBytes bounds a single JSONL record; tool outputs can be large.
const maxLineBytes = 16 * 1024 * 1024

// DecodeLine parses one JSONL line into a RawMessage. Blank lines return
// ok=false with no error so callers can skip them.
func DecodeLine(line string) (RawMessage, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return RawMessage{}, false, nil
	}
	var msg RawMessage
	if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
		return RawMessage{}, false, fmt.Errorf("decode transcript line: %w", err)
	}
	if msg.ID == "" {
		return RawMessage{}, false, fmt.Errorf("transcript line missing id")
	}
	return msg, true, nil
}

// Decode reads line-delimited RawMessage JSON from r.
func Decode(r io.Reader) ([]RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var msgs []RawMessage
	for scanner.Scan() {
		msg, ok, err := DecodeLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		if ok {
			msgs = append(msgs, msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ReadFile loads an entire JSONL transcript from disk.
func ReadFile(path string) ([]RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
