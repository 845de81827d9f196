package render

import "strings"

// Markers some local models emit around their final answer
const (
	finalChannelMarker = "<|channel|>final<|message|>"
	messageMarker      = "<|message|>"
)

// CleanResponse returns the text after the last final-channel marker, or
// after the last message marker when there is no final channel. Text without
// markers is returned trimmed.
func CleanResponse(text string) string {
	for _, marker := range []string{finalChannelMarker, messageMarker} {
		if i := strings.LastIndex(text, marker); i >= 0 {
			return strings.TrimSpace(text[i+len(marker):])
		}
	}
	return strings.TrimSpace(text)
}

// Markdown renders markdown content for terminal display with a cached
// renderer.
func Markdown(content string, opts Options) (string, error) {
	r, err := rendererFor(opts)
	if err != nil {
		return "", err
	}
	return r.render(content)
}

// Reply cleans an assistant reply and renders it. Rendering failures fall
// back to the cleaned plain text.
func Reply(content string, opts Options) string {
	cleaned := CleanResponse(content)
	out, err := Markdown(cleaned, opts)
	if err != nil {
		return cleaned
	}
	return strings.Trim(out, "\n")
}
