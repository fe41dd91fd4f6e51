package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

const (
	MsgReminderNoKey  = "API Key ausente. Por favor, configure a OPENAI_API_KEY."
	MsgReminderEmpty  = "Não foi possível gerar a mensagem."
	MsgReminderFailed = "Erro ao criar mensagem inteligente."

	MsgSummaryNoKey  = "API Key ausente."
	MsgSummaryEmpty  = "Análise indisponível."
	MsgSummaryFailed = "Erro ao analisar financeiro."

	maxSummaryRecords = 20
	ptBRDateTime      = "02/01/2006, 15:04:05"
)

var tracer = otel.Tracer("github.com/md-rashed-zaman/nexsched/assist")

// Assistant never fails: every problem is reported as a fixed pt-BR text in
// place of the generated one. Each call makes a single attempt.
type Assistant struct {
	provider TextGenerationProvider
	logger   *slog.Logger
	timeout  time.Duration
	loc      *time.Location
}

func NewAssistant(provider TextGenerationProvider, logger *slog.Logger, timeout time.Duration, loc *time.Location) *Assistant {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Assistant{provider: provider, logger: logger, timeout: timeout, loc: loc}
}

// Configured reports whether a live provider is wired.
func (a *Assistant) Configured() bool { return a.provider != nil }

func (a *Assistant) GenerateReminderMessage(ctx context.Context, appt model.Appointment, companyName string) string {
	prompt := reminderPrompt(appt, companyName, a.loc)
	return a.run(ctx, "reminder", prompt, MsgReminderNoKey, MsgReminderEmpty, MsgReminderFailed)
}

func (a *Assistant) SummarizeFinancials(ctx context.Context, records []model.FinancialRecord) string {
	if len(records) > maxSummaryRecords {
		records = records[:maxSummaryRecords]
	}
	if records == nil {
		records = []model.FinancialRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return MsgSummaryFailed
	}
	return a.run(ctx, "financial_summary", financialPrompt(string(raw)), MsgSummaryNoKey, MsgSummaryEmpty, MsgSummaryFailed)
}

func (a *Assistant) run(ctx context.Context, kind, prompt, noKey, empty, failed string) string {
	if a.provider == nil {
		metrics.AssistRequestsTotal.WithLabelValues(kind, "unconfigured").Inc()
		return noKey
	}

	ctx, span := tracer.Start(ctx, "assist."+kind)
	defer span.End()
	span.SetAttributes(attribute.String("assist.kind", kind))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	text, err := a.provider.Generate(ctx, prompt)
	metrics.AssistDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.AssistRequestsTotal.WithLabelValues(kind, outcome).Inc()
		a.logger.Error("assist generation failed", "kind", kind, "err", err)
		return failed
	}
	if strings.TrimSpace(text) == "" {
		metrics.AssistRequestsTotal.WithLabelValues(kind, "empty").Inc()
		return empty
	}
	metrics.AssistRequestsTotal.WithLabelValues(kind, "ok").Inc()
	return text
}

func reminderPrompt(appt model.Appointment, companyName string, loc *time.Location) string {
	return fmt.Sprintf(`Você é um assistente de IA para uma empresa chamada "%s".
Gere uma mensagem de WhatsApp curta, polida e profissional para um cliente (em Português do Brasil).

Detalhes:
Nome do Cliente: %s
Data/Hora: %s
Status: %s
Ação: Lembrete/Confirmação

A mensagem deve ser amigável, incluir os detalhes e pedir confirmação se o status for pendente. Não inclua linhas de assunto. Use emojis com moderação.`,
		companyName, appt.ClientName, appt.Start.In(loc).Format(ptBRDateTime), appt.Status)
}

func financialPrompt(recordsJSON string) string {
	return fmt.Sprintf(`Analise estes dados financeiros JSON de uma pequena empresa: %s.
Forneça um resumo conciso de 3 pontos sobre a saúde financeira e sugira 1 melhoria.
Responda em Português do Brasil.
Formate como texto simples.`, recordsJSON)
}

// IsPlaceholder reports whether text is one of the fixed stand-ins returned
// instead of generated content.
func IsPlaceholder(text string) bool {
	switch text {
	case MsgReminderNoKey, MsgReminderEmpty, MsgReminderFailed,
		MsgSummaryNoKey, MsgSummaryEmpty, MsgSummaryFailed:
		return true
	}
	return false
}
