package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
)

// mockLLM scripts chat responses by recognizing which agent's prompt it
// received. Section failures are injected per section name.
type mockLLM struct {
	mu           sync.Mutex
	calls        int
	failSections map[string]error
	// transientFailures[name] > 0 makes the section fail with a transient
	// error that many times before succeeding
	transientFailures map[string]int
	failSummary       bool
	summaryResponse   string
}

func newMockLLM() *mockLLM {
	return &mockLLM{
		failSections:      map[string]error{},
		transientFailures: map[string]int{},
	}
}

func (m *mockLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	prompt := messages[len(messages)-1].Content

	if strings.Contains(prompt, "Extract a structured summary") {
		if m.failSummary {
			return "", fmt.Errorf("summary model error")
		}
		if m.summaryResponse != "" {
			return m.summaryResponse, nil
		}
		return mockSummaryJSON(), nil
	}
	if strings.Contains(prompt, "researching the following company") {
		return "Research notes: strong market traction and recurring revenue.", nil
	}

	for _, spec := range models.ReportSectionSpecs {
		if !strings.Contains(prompt, fmt.Sprintf("Section %d:", spec.Index)) {
			continue
		}
		if remaining := m.transientFailures[spec.Name]; remaining > 0 {
			m.transientFailures[spec.Name] = remaining - 1
			return "", fmt.Errorf("429 rate limit exceeded")
		}
		if err := m.failSections[spec.Name]; err != nil {
			return "", err
		}
		return fmt.Sprintf("### **%s**\n\nGenerated content for %s.", spec.Title, spec.Name), nil
	}

	return "generic response", nil
}

func (m *mockLLM) HealthCheck(ctx context.Context) error { return nil }
func (m *mockLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeCloud }
func (m *mockLLM) Close() error                          { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func mockSummaryJSON() string {
	obj := map[string]interface{}{}
	for _, spec := range models.ReportSectionSpecs {
		fields := map[string]string{}
		for _, key := range spec.SummaryKeys {
			fields[key] = "summary of " + key
		}
		obj[spec.Name] = fields
	}
	obj["metrics"] = map[string]string{"arr_growth": "unknown"}

	data, _ := json.Marshal(obj)
	return "```json\n" + string(data) + "\n```"
}

type stubContextService struct {
	text string
}

func (s *stubContextService) FetchContext(ctx context.Context, pitchDeckURL string, queryHints []string) string {
	return s.text
}

type stubPDFService struct {
	fail bool
}

func (s *stubPDFService) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	if s.fail {
		return nil, fmt.Errorf("render error")
	}
	return []byte("%PDF-1.4 stub"), nil
}

type stubArtifacts struct {
	mu        sync.Mutex
	published map[string][]byte
}

func newStubArtifacts() *stubArtifacts {
	return &stubArtifacts{published: map[string][]byte{}}
}

func (s *stubArtifacts) Publish(ctx context.Context, dealID, filename string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[dealID+"/"+filename] = content
	return "/artifacts/" + dealID + "/" + filename, nil
}

func (s *stubArtifacts) Dir() string { return "" }

type stubNotifier struct {
	mu            sync.Mutex
	notifications []interfaces.ReportNotification
}

func (s *stubNotifier) NotifyAsync(n interfaces.ReportNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *stubNotifier) sent() []interfaces.ReportNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interfaces.ReportNotification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
