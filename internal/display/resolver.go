// Package display maps canonical tool names to presentation hints. Pure
// lookup, no state; unknown names fall through to a generated label.
package display

import (
	"strings"

	"toolscope/internal/parse"
)

// Category groups tools for the viewer's iconography and filtering.
type Category string

const (
	CategoryFiles     Category = "files"
	CategoryShell     Category = "shell"
	CategoryWeb       Category = "web"
	CategorySearch    Category = "search"
	CategoryMessaging Category = "messaging"
	CategoryOther     Category = "other"
)

// Display is what the presentation layer needs to render a tool row.
type Display struct {
	Label    string
	IconKey  string
	Category Category
}

// Tool names are looked up canonically, so both the native and legacy
// spellings of a tool resolve to the same entry.
var registry = map[string]Display{
	"read_file":     {Label: "Read File", IconKey: "file-read", Category: CategoryFiles},
	"create_file":   {Label: "Create File", IconKey: "file-plus", Category: CategoryFiles},
	"write_file":    {Label: "Write File", IconKey: "file-write", Category: CategoryFiles},
	"edit_file":     {Label: "Edit File", IconKey: "file-edit", Category: CategoryFiles},
	"delete_file":   {Label: "Delete File", IconKey: "file-minus", Category: CategoryFiles},
	"list_files":    {Label: "List Files", IconKey: "folder", Category: CategoryFiles},
	"run_command":   {Label: "Run Command", IconKey: "terminal", Category: CategoryShell},
	"bash":          {Label: "Bash", IconKey: "terminal", Category: CategoryShell},
	"web_search":    {Label: "Web Search", IconKey: "globe-search", Category: CategoryWeb},
	"fetch_url":     {Label: "Fetch URL", IconKey: "globe", Category: CategoryWeb},
	"browser":       {Label: "Browser", IconKey: "browser", Category: CategoryWeb},
	"grep":          {Label: "Grep", IconKey: "magnifier", Category: CategorySearch},
	"glob":          {Label: "Glob", IconKey: "magnifier", Category: CategorySearch},
	"send_message":  {Label: "Message", IconKey: "chat", Category: CategoryMessaging},
	"wait_for_user": {Label: "Wait For User", IconKey: "chat", Category: CategoryMessaging},
}

const fallbackIconKey = "generic-tool"

// Resolve returns the presentation hints for functionName in either
// encoding's spelling. Unknown names get a title-cased label, the generic
// icon, and the "other" category.
func Resolve(functionName string) Display {
	canonical := parse.CanonicalName(functionName)
	if d, ok := registry[canonical]; ok {
		return d
	}
	return Display{
		Label:    titleCase(canonical),
		IconKey:  fallbackIconKey,
		Category: CategoryOther,
	}
}

func titleCase(canonical string) string {
	words := strings.FieldsFunc(canonical, func(r rune) bool { return r == '_' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
