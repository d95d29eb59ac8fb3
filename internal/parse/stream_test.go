package parse

import (
	"regexp"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestStreamingTextBeforeCompleteWrapper(t *testing.T) {
	text := `Let me look that up.\n<calls><invoke name="web-search"><parameter name="query">cats`
	require.Equal(t, `Let me look that up.\n`, StreamingText(text))
}

func TestStreamingTextEmptyWhenCallLeads(t *testing.T) {
	require.Equal(t, "", StreamingText(`<calls><invoke name="create-file">`))
}

func TestStreamingTextDanglingTagAtTail(t *testing.T) {
	cases := map[string]string{
		"thinking about it <":             "thinking about it ",
		"thinking about it <cal":          "thinking about it ",
		"thinking about it <invoke name=": "thinking about it ",
		"thinking about it </par":         "thinking about it ",
	}
	for in, want := range cases {
		require.Equal(t, want, StreamingText(in), "input %q", in)
	}
}

func TestStreamingTextHiddenTagMidStream(t *testing.T) {
	// No complete wrapper, tag not at the tail: third tier catches it.
	text := `done with that <parameter name="text">partial value here`
	require.Equal(t, "done with that ", StreamingText(text))
}

func TestStreamingTextPlainProse(t *testing.T) {
	require.Equal(t, "2 < 3 is true", StreamingText("2 < 3 is true"))
}

func TestStreamingParameterPriority(t *testing.T) {
	text := `<calls><invoke name="create-file">` +
		`<parameter name="file_path">a.txt</parameter>` +
		`<parameter name="content">hello world`
	require.Equal(t, "hello world", StreamingParameter(text))
}

func TestStreamingParameterPrefersTextOverCommand(t *testing.T) {
	text := `<parameter name="command">ls</parameter><parameter name="text">explain</parameter>`
	require.Equal(t, "explain", StreamingParameter(text))
}

func TestStreamingParameterClosedTagExcluded(t *testing.T) {
	text := `<parameter name="command">ls -la</parameter> trailing junk`
	require.Equal(t, "ls -la", StreamingParameter(text))
}

func TestStreamingParameterNoMatch(t *testing.T) {
	require.Equal(t, "", StreamingParameter("no parameters at all"))
	require.Equal(t, "", StreamingParameter(`<parameter name="unrelated">x</parameter>`))
}

// The display text must never end with an unterminated "<" followed by a
// tag-name-looking token, whatever fragments the stream is cut into.
func TestStreamingTextTruncationSafety(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	unsafeTail := regexp.MustCompile(`<[a-zA-Z_/][a-zA-Z0-9_/\- ="]*$|<$`)

	fragments := gen.OneConstOf(
		"prose ", "<", "<calls>", "</calls>", "<invoke name=\"bash\">",
		"<parameter name=\"text\">", "value", "</parameter>", "<inv", "a < b ",
	)

	properties.Property("no dangling tag fragment survives", prop.ForAll(
		func(parts []string) bool {
			var text string
			for _, p := range parts {
				text += p
			}
			out := StreamingText(text)
			return !unsafeTail.MatchString(out)
		},
		gen.SliceOf(fragments),
	))

	properties.TestingRun(t)
}
