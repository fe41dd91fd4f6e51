package assist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

type stubProvider struct {
	reply  string
	err    error
	prompt string
	block  bool
}

func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func newAssistant(p TextGenerationProvider) *Assistant {
	return NewAssistant(p, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second, time.UTC)
}

var sampleAppt = model.Appointment{
	ID:         "a2",
	ClientName: "Roberto Oliveira",
	Start:      time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
	Status:     model.StatusPending,
}

func TestReminderPlaceholders(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, MsgReminderNoKey, newAssistant(nil).GenerateReminderMessage(ctx, sampleAppt, "Clínica TechHealth"))
	assert.Equal(t, MsgReminderEmpty, newAssistant(&stubProvider{reply: "  "}).GenerateReminderMessage(ctx, sampleAppt, "x"))
	assert.Equal(t, MsgReminderFailed, newAssistant(&stubProvider{err: errors.New("429")}).GenerateReminderMessage(ctx, sampleAppt, "x"))
}

func TestReminderPrompt(t *testing.T) {
	p := &stubProvider{reply: "Olá Roberto! 👋"}
	got := newAssistant(p).GenerateReminderMessage(context.Background(), sampleAppt, "Clínica TechHealth")

	assert.Equal(t, "Olá Roberto! 👋", got)
	assert.Contains(t, p.prompt, `empresa chamada "Clínica TechHealth"`)
	assert.Contains(t, p.prompt, "Nome do Cliente: Roberto Oliveira")
	assert.Contains(t, p.prompt, "Data/Hora: 10/01/2024, 14:00:00")
	assert.Contains(t, p.prompt, "Status: PENDING")
	assert.Contains(t, p.prompt, "Ação: Lembrete/Confirmação")
}

func TestSummaryPlaceholdersAndLimit(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, MsgSummaryNoKey, newAssistant(nil).SummarizeFinancials(ctx, nil))
	assert.Equal(t, MsgSummaryEmpty, newAssistant(&stubProvider{}).SummarizeFinancials(ctx, nil))
	assert.Equal(t, MsgSummaryFailed, newAssistant(&stubProvider{err: errors.New("down")}).SummarizeFinancials(ctx, nil))

	records := make([]model.FinancialRecord, 30)
	for i := range records {
		records[i] = model.FinancialRecord{ID: "fin" + string(rune('A'+i)), Type: model.RecordIncome, Amount: 1}
	}
	p := &stubProvider{reply: "ok"}
	newAssistant(p).SummarizeFinancials(ctx, records)
	assert.Equal(t, 20, strings.Count(p.prompt, `"type"`))
	assert.Contains(t, p.prompt, "Responda em Português do Brasil.")
}

func TestTimeoutYieldsFailureText(t *testing.T) {
	a := NewAssistant(&stubProvider{block: true}, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Millisecond, time.UTC)
	assert.Equal(t, MsgReminderFailed, a.GenerateReminderMessage(context.Background(), sampleAppt, "x"))
}

func TestOpenAIProviderAgainstFakeServer(t *testing.T) {
	var gotModel, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Resumo"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	got := newAssistant(p).SummarizeFinancials(context.Background(), []model.FinancialRecord{{ID: "fin1", Amount: 200, Type: model.RecordIncome}})
	assert.Equal(t, "Resumo", got)
	assert.Equal(t, DefaultModel, gotModel)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestOpenAIProviderWithoutChoicesYieldsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c2","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	got := newAssistant(p).GenerateReminderMessage(context.Background(), sampleAppt, "Tech Health")
	assert.Equal(t, MsgReminderEmpty, got)
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{APIKey: " "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
