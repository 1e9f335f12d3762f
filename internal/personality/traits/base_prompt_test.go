package traits_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/internal/personality/traits"
)

var _ = Describe("Tones", func() {
	It("lists presets in order", func() {
		Expect(traits.Tones()).To(Equal([]string{"friendly", "neutral", "professional", "witty"}))
	})
})

var _ = Describe("FormatTone", func() {
	It("renders a preset with sorted sections", func() {
		out := traits.FormatTone("Witty")
		Expect(out).To(HavePrefix("Interaction Style:\n"))
		Expect(out).To(ContainSubstring("\nPersonality:\n   - Quick, playful, a little dry"))
		Expect(out).NotTo(ContainSubstring("Additional guidance"))
	})

	It("uses the default preset for an empty tone", func() {
		Expect(traits.FormatTone("")).To(Equal(traits.FormatTone(traits.DefaultTone)))
	})

	It("keeps a free-form tone as guidance", func() {
		out := traits.FormatTone("sarcastic pirate")
		Expect(out).To(ContainSubstring("Calm and factual"))
		Expect(out).To(HaveSuffix("Additional guidance:\n   - sarcastic pirate"))
	})
})
