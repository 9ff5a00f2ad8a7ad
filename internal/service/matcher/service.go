package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/carebridge/portal-api/internal/model"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/metrics"
)

type MatcherServicer interface {
	// Match forwards the query to the model gateway. Validation failures
	// come back as bad-request errors before any upstream call; upstream
	// failures come back as upstream errors so the handler can degrade to
	// an empty result list.
	Match(ctx context.Context, query *model.MatchQuery) (*model.MatchResponse, error)
}

type Service struct {
	gateway GatewayClient
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(gateway GatewayClient, m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		metrics: m,
		logger:  logger,
	}
}

// Validate enforces the input shape before anything leaves the process.
func Validate(query *model.MatchQuery) error {
	if strings.TrimSpace(query.ChiefConcern) == "" {
		return apperrors.BadRequest("chief_concern is required", nil)
	}
	if len(query.ChiefConcern) > model.MaxChiefConcernLen {
		return apperrors.BadRequest(fmt.Sprintf("chief_concern must not exceed %d characters", model.MaxChiefConcernLen), nil)
	}
	if strings.TrimSpace(query.Location) == "" {
		return apperrors.BadRequest("location is required", nil)
	}
	if len(query.Location) > model.MaxLocationLen {
		return apperrors.BadRequest(fmt.Sprintf("location must not exceed %d characters", model.MaxLocationLen), nil)
	}
	switch query.Urgency {
	case model.UrgencyRoutine, model.UrgencySoon, model.UrgencyUrgent:
	default:
		return apperrors.BadRequest("urgency must be one of routine, soon, urgent", nil)
	}
	return nil
}

func (s *Service) Match(ctx context.Context, query *model.MatchQuery) (*model.MatchResponse, error) {
	if err := Validate(query); err != nil {
		return nil, err
	}

	start := time.Now()
	completion, err := s.gateway.Complete(ctx, buildPrompt(query))
	s.observeUpstream(time.Since(start), err)
	if err != nil {
		s.logger.Error(err, "model gateway call failed")
		return nil, apperrors.Upstream("physician matching is temporarily unavailable", err)
	}

	raw, ok := extractJSONObject(completion)
	if !ok {
		s.logger.Error(nil, "no JSON object in model completion", "completion_len", len(completion))
		return nil, apperrors.Upstream("physician matching returned an unreadable response", nil)
	}

	var parsed struct {
		Physicians []model.Physician `json:"physicians"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.logger.Error(err, "failed to decode model completion")
		return nil, apperrors.Upstream("physician matching returned an unreadable response", err)
	}
	if parsed.Physicians == nil {
		parsed.Physicians = []model.Physician{}
	}

	return &model.MatchResponse{Physicians: parsed.Physicians}, nil
}

func (s *Service) observeUpstream(elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.MatcherUpstreamTotal.WithLabelValues(result).Inc()
	s.metrics.MatcherUpstreamLatency.Observe(elapsed.Seconds())
}

func buildPrompt(query *model.MatchQuery) string {
	var b strings.Builder
	b.WriteString("You are a physician-matching assistant. Given the patient query below, ")
	b.WriteString("return ONLY a JSON object of the form ")
	b.WriteString(`{"physicians": [{"id", "name", "specialty", "rating", "distance", "availability", "match_score", "bio", "education", "certifications", "experience"}]}`)
	b.WriteString(" with up to 5 candidates ranked by fit.\n\n")
	fmt.Fprintf(&b, "Chief concern: %s\n", query.ChiefConcern)
	fmt.Fprintf(&b, "Location: %s\n", query.Location)
	fmt.Fprintf(&b, "Urgency: %s\n", query.Urgency)
	if query.Specialty != "" {
		fmt.Fprintf(&b, "Preferred specialty: %s\n", query.Specialty)
	}
	if query.InsuranceProvider != "" {
		fmt.Fprintf(&b, "Insurance: %s\n", query.InsuranceProvider)
	}
	if query.PreferredGender != "" {
		fmt.Fprintf(&b, "Preferred gender: %s\n", query.PreferredGender)
	}
	if query.LanguagePreference != "" {
		fmt.Fprintf(&b, "Language: %s\n", query.LanguagePreference)
	}
	if query.VirtualVisit != nil {
		fmt.Fprintf(&b, "Virtual visit: %t\n", *query.VirtualVisit)
	}
	if query.AcceptingNewPatients != nil {
		fmt.Fprintf(&b, "Must accept new patients: %t\n", *query.AcceptingNewPatients)
	}
	return b.String()
}

// extractJSONObject returns the first balanced top-level JSON object in s.
// Completions often wrap the object in prose or code fences; everything
// around it is ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
