package driving

import (
	"context"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// QueryService drives the read path: retrieval and the ask flow.
type QueryService interface {
	// Retrieve embeds the query and returns the top-k sections ranked
	// by cosine similarity, highest first. An empty corpus yields an
	// empty result, never an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.ScoredSection, error)

	// Ask retrieves evidence, packs it into a budgeted context and asks
	// the LLM. When nothing relevant is found the answer says so
	// without calling the LLM.
	Ask(ctx context.Context, question string, opts domain.RetrievalOptions) (*domain.Answer, error)
}
