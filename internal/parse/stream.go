package parse

import (
	"regexp"
	"strings"
)

var (
	wrapperOpenRe = regexp.MustCompile(`<(?:` + wrapperTag + `|` + wrapperTagAlias + `)>`)
	// A bare "<" or a partially typed tag at the very end of the buffer.
	danglingTagRe = regexp.MustCompile(`<\z|<[a-zA-Z_/][^>]*\z`)
)

// hiddenTags are tag names that must never reach a viewer while a message is
// still streaming; any occurrence truncates the display text.
var hiddenTags = []string{wrapperTag, wrapperTagAlias, invokeTag, parameterTag}

// streamingParameterNames is the fixed priority order used to surface the
// human-readable payload of an in-progress invocation.
var streamingParameterNames = []string{
	"text", "content", "data", "config", "description", "prompt", "command", "file_contents",
}

// StreamingText extracts the displayable prose from a message that is still
// being appended to. Three truncation tiers, applied in order: text before a
// complete wrapper open tag, text before a dangling "<" fragment at the tail,
// and text before the first hidden tag name. Whichever tiers fire, no tag
// markup survives in the output.
func StreamingText(text string) string {
	if loc := wrapperOpenRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	if loc := danglingTagRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	for _, tag := range hiddenTags {
		if idx := strings.Index(text, "<"+tag); idx >= 0 {
			text = text[:idx]
		}
	}
	return text
}

var streamingParamRes = func() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(streamingParameterNames))
	for _, name := range streamingParameterNames {
		res[name] = regexp.MustCompile(`(?s)<` + parameterTag + ` name="` + name + `">(.*?)(?:</` + parameterTag + `>|\z)`)
	}
	return res
}()

// StreamingParameter pulls the best-effort content of an in-progress legacy
// invocation: the first non-empty parameter from the known priority list, up
// to its closing tag if that has arrived, else to the end of the buffer.
func StreamingParameter(text string) string {
	for _, name := range streamingParameterNames {
		m := streamingParamRes[name].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if strings.TrimSpace(m[1]) != "" {
			return m[1]
		}
	}
	return ""
}
