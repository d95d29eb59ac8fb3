package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	line := `{"id": "m1", "thread_id": "t1", "kind": "assistant", "content_text": "hi", "created_at": "2026-03-01T12:00:00Z", "sequence": 3}`
	msg, ok, err := DecodeLine(line)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "m1", msg.ID)
	require.Equal(t, "t1", msg.ThreadID)
	require.Equal(t, KindAssistant, msg.Kind)
	require.Equal(t, "hi", msg.ContentText)
	require.Equal(t, int64(3), msg.Sequence)
	require.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), msg.CreatedAt)
}

func TestDecodeLineBlank(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		_, ok, err := DecodeLine(line)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestDecodeLineErrors(t *testing.T) {
	_, _, err := DecodeLine(`{"id": `)
	require.Error(t, err)

	_, _, err = DecodeLine(`{"thread_id": "t1"}`)
	require.ErrorContains(t, err, "missing id")
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id": "m1", "kind": "user"}`,
		``,
		`{"id": "m2", "kind": "assistant"}`,
		``,
	}, "\n")
	msgs, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m2", msgs[1].ID)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "m1", "kind": "user"}`+"\n"), 0o644))

	msgs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}

func TestBeforeOrdering(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	early := RawMessage{CreatedAt: base, Sequence: 1}
	late := RawMessage{CreatedAt: base.Add(time.Second), Sequence: 0}
	tied := RawMessage{CreatedAt: base, Sequence: 2}

	require.True(t, early.Before(late))
	require.False(t, late.Before(early))
	require.True(t, early.Before(tied))
	require.False(t, tied.Before(early))
}
