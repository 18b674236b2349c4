// Package prompt turns candidate and offer text into the model prompt.
package prompt

import "strings"

// Build substitutes both texts into Template in a single pass. Placeholder
// tokens appearing inside the inputs are copied literally and never expanded.
func Build(candidateText, offerText string) string {
	r := strings.NewReplacer(
		CandidatePlaceholder, candidateText,
		OfferPlaceholder, offerText,
	)
	return r.Replace(Template)
}
