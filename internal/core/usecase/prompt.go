package usecase

import (
	"fmt"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
)

// NoInformationAnswer is returned when retrieval finds nothing, without
// calling the completion model.
const NoInformationAnswer = "I couldn't find information about that for your area. " +
	"Please speak with a local DUI defense attorney about your specific situation."

func buildContext(results []domain.SearchResult) string {
	var b strings.Builder
	for idx, r := range results {
		jurisdiction := "general"
		if r.Jurisdiction.State != "" {
			jurisdiction = r.Jurisdiction.State
			if r.Jurisdiction.County != "" {
				jurisdiction += "/" + r.Jurisdiction.County
			}
		}
		fmt.Fprintf(&b, "[%d] source=%q jurisdiction=%s topic=%s similarity=%.3f\n%s\n\n",
			idx+1,
			r.Source.Title,
			jurisdiction,
			r.Topic,
			r.Similarity,
			strings.TrimSpace(r.Text),
		)
	}
	return b.String()
}

func buildAnswerPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`You answer questions for a DUI/DWI legal information website.
Answer only from the numbered sources below and cite them as [n].
If the sources do not answer the question, say so directly.
Do not give individual legal advice; suggest speaking with a local DUI attorney.

Question:
%s

Sources:
%s`, strings.TrimSpace(question), contextBlock)
}
