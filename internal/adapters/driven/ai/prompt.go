package ai

import (
	"encoding/json"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// systemPrompt joins the system instruction with retrieved context
func systemPrompt(req *domain.GenerateRequest) string {
	if req.Context == "" {
		return req.System
	}
	var b strings.Builder
	b.WriteString(req.System)
	if req.System != "" {
		b.WriteString("\n\n")
	}
	b.WriteString("Context:\n")
	b.WriteString(req.Context)
	return b.String()
}

// decodePayload parses a structured reply. An empty object or a reply
// with nothing but empty values counts as declined.
func decodePayload(raw string) (map[string]any, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false, err
	}
	for _, v := range payload {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return payload, false, nil
	}
	return nil, true, nil
}
