package driving

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// AIServiceStatus reports whether one AI service is usable
type AIServiceStatus struct {
	Name      string            `json:"name,omitempty"`
	Available bool              `json:"available"`
	Provider  domain.AIProvider `json:"provider,omitempty"`
	Model     string            `json:"model,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// AIStatus is the state of every configured AI service
type AIStatus struct {
	Embedding           AIServiceStatus   `json:"embedding"`
	Reranker            AIServiceStatus   `json:"reranker"`
	Backends            []AIServiceStatus `json:"backends"`
	DefaultBackend      string            `json:"default_backend"`
	EffectiveSearchMode domain.SearchMode `json:"effective_search_mode"`
}

// AIStatusService reports on the installed AI services
type AIStatusService interface {
	// Status returns the services currently installed
	Status() *AIStatus

	// TestConnection health-checks every installed service
	TestConnection(ctx context.Context) error
}
