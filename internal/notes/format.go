package notes

import (
	"regexp"
	"strings"
)

// speakerLabelRe matches diarization labels of the form "Speaker 3:", optionally
// already wrapped in emphasis markers so re-application never double-wraps.
var speakerLabelRe = regexp.MustCompile(`\*?Speaker \d+:\*?`)

// BoldSpeakerLabels wraps every "Speaker <digits>:" label in bold markers.
//
// The transform is pure and idempotent: labels that already carry markers are
// left untouched, so applying it twice yields the same text.
func BoldSpeakerLabels(s string) string {
	return speakerLabelRe.ReplaceAllStringFunc(s, func(label string) string {
		if strings.HasPrefix(label, "*") && strings.HasSuffix(label, "*") {
			return label
		}
		return "*" + strings.Trim(label, "*") + "*"
	})
}

// ItalicizeParagraphs wraps every non-blank line of s in italic markers.
//
// Text is split on "\n"; each line is trimmed and, when non-blank, wrapped in
// "_…_". Blank lines pass through unchanged and lines are rejoined with "\n",
// so the line count is preserved exactly. Lines already fully wrapped are left
// alone, keeping the transform idempotent.
func ItalicizeParagraphs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 1 && strings.HasPrefix(trimmed, "_") && strings.HasSuffix(trimmed, "_") {
			lines[i] = trimmed
			continue
		}
		lines[i] = "_" + trimmed + "_"
	}
	return strings.Join(lines, "\n")
}

// FormatTranscript renders a raw transcript as an outbound message body:
// speaker labels bolded, then every paragraph italicized.
func FormatTranscript(transcript string) string {
	return ItalicizeParagraphs(BoldSpeakerLabels(transcript))
}

// FormatSummary renders a summary as an outbound message body.
func FormatSummary(summary string) string {
	return ItalicizeParagraphs(summary)
}
