package traits

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultTone is used when an account has no tone or an unknown one.
const DefaultTone = "neutral"

// ToneSections defines the voice presets an account can pick for its drafts
var ToneSections = map[string]map[string]string{
	"neutral": {
		"Personality": `   - Calm and factual
   - Adds context rather than opinion`,
		"Interaction Style": `   - Plain sentences, no slang
   - No hashtags or emoji`,
	},
	"friendly": {
		"Personality": `   - Warm and encouraging
   - Assumes good intent`,
		"Interaction Style": `   - Conversational, first person
   - At most one emoji`,
	},
	"witty": {
		"Personality": `   - Quick, playful, a little dry
   - Never mean-spirited`,
		"Interaction Style": `   - One clever turn of phrase
   - Short punchy sentences`,
	},
	"professional": {
		"Personality": `   - Measured and credible
   - Speaks for an organization`,
		"Interaction Style": `   - Complete sentences, no slang
   - Link-free unless asked
   - Avoid speculation`,
	},
}

// Tones lists the preset names in stable order.
func Tones() []string {
	names := make([]string, 0, len(ToneSections))
	for name := range ToneSections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatTone renders the named preset as prompt text. Unknown names fall back to DefaultTone;
// a free-form tone that matches no preset is appended as a hint.
func FormatTone(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	sections, ok := ToneSections[key]
	if !ok {
		sections = ToneSections[DefaultTone]
	}

	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s:\n%s\n", k, sections[k]))
	}
	if !ok && key != "" {
		b.WriteString(fmt.Sprintf("Additional guidance:\n   - %s\n", name))
	}
	return strings.TrimRight(b.String(), "\n")
}
