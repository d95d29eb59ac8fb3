package parse

import "regexp"

// Legacy encoding tags. The wrapper has two historical spellings; both are
// accepted everywhere the wrapper is matched.
const (
	wrapperTag      = "calls"
	wrapperTagAlias = "function_calls"
	invokeTag       = "invoke"
	parameterTag    = "parameter"
)

var (
	wrapperRe = regexp.MustCompile(`(?s)<(?:` + wrapperTag + `|` + wrapperTagAlias + `)>(.*?)(</(?:` + wrapperTag + `|` + wrapperTagAlias + `)>|\z)`)
	invokeRe  = regexp.MustCompile(`(?s)<` + invokeTag + ` name="([^"]*)">(.*?)(</` + invokeTag + `>|\z)`)
	// The parameter value is matched up to its own closing tag (or end of
	// input while streaming), never up to a generic "<": values carrying
	// literal markup must survive intact.
	parameterRe = regexp.MustCompile(`(?s)<` + parameterTag + ` name="([^"]*)">(.*?)(</` + parameterTag + `>|\z)`)
)

// Invocation is a raw legacy-encoded tool invocation lifted out of message
// text. Parameter values are the verbatim tag contents; coercion happens
// during normalization.
type Invocation struct {
	FunctionName  string
	RawParameters map[string]string
	// IsComplete is false while the invocation is still streaming: its
	// invoke tag or one of its parameter tags has not closed yet.
	IsComplete bool
}

// ExtractInvocations scans text for legacy-encoded tool invocations and
// returns them in document order. Partial invocations at the end of a
// still-streaming message are returned with IsComplete=false and whatever
// parameter text has arrived so far.
func ExtractInvocations(text string) []Invocation {
	var out []Invocation
	for _, wrapper := range wrapperRe.FindAllStringSubmatch(text, -1) {
		body := wrapper[1]
		for _, invoke := range invokeRe.FindAllStringSubmatch(body, -1) {
			inv := Invocation{
				FunctionName:  invoke[1],
				RawParameters: map[string]string{},
				IsComplete:    invoke[3] != "",
			}
			for _, param := range parameterRe.FindAllStringSubmatch(invoke[2], -1) {
				inv.RawParameters[param[1]] = param[2]
				if param[3] == "" {
					inv.IsComplete = false
				}
			}
			out = append(out, inv)
		}
	}
	return out
}
