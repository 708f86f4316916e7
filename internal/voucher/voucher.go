// Package voucher extracts payment records from scanned voucher images
// and PDFs through a generative model. The model is asked for strict
// JSON; its output is cleaned, decoded and normalized into canonical
// records so callers can feed it straight into the reconciliation
// engine as a tertiary set.
package voucher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/normalize"
)

// DefaultModel is the Gemini model used for voucher extraction.
const DefaultModel = "gemini-2.5-flash"

// Payment is one payment as reported by the model, before normalization.
type Payment struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Time        string  `json:"time,omitempty"`
	Description string  `json:"description"`
	Reference   string  `json:"reference,omitempty"`
	IsQR        bool    `json:"is_qr"`
	Page        int     `json:"page"`
}

// Extractor pulls payment records out of a voucher file.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) ([]Payment, error)
}

// GeminiExtractor is the Gemini-backed Extractor.
type GeminiExtractor struct {
	Model string
}

// NewGeminiExtractor returns an extractor using the default model.
func NewGeminiExtractor() *GeminiExtractor {
	return &GeminiExtractor{Model: DefaultModel}
}

const extractionPrompt = "You are a payment voucher reader for scanned bank deposit slips, transfer receipts and QR payment screenshots.\n\n" +
	"Task:\n" +
	"- Find EVERY payment in the attached document. A page may contain several vouchers.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"amount\": number (always positive)\n" +
	"- \"time\": string \"HH:MM\" or empty string if not visible\n" +
	"- \"description\": string (payer or concept as printed)\n" +
	"- \"reference\": string (point-of-sale or operation code, empty if none)\n" +
	"- \"is_qr\": boolean (true when the voucher is a QR payment)\n" +
	"- \"page\": number (1-based page the voucher appears on)\n\n" +
	"Rules:\n" +
	"- If a field is unreadable, use an empty string, never invent values.\n" +
	"- Amounts keep their printed decimals; do not convert currencies.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// Extract sends the file to the model and decodes its JSON answer.
func (e *GeminiExtractor) Extract(ctx context.Context, data []byte, mimeType string) ([]Payment, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Extract: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	model := e.Model
	if model == "" {
		model = DefaultModel
	}
	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Extract: empty response from model")
	}

	var payments []Payment
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &payments); err != nil {
		return nil, fmt.Errorf("Extract: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}
	return payments, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// Canonicalize re-normalizes records decoded from an external source,
// such as a saved extraction JSON, and drops any that fail validation.
// Records that bypassed ingestion must never reach the engine raw.
func Canonicalize(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		rec.Date = normalize.Date(rec.Date)
		rec.Amount = normalize.Amount(rec.Amount)
		rec.Reference = normalize.ExtractPV(rec.Reference)
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Records normalizes extracted payments into canonical records tagged
// origin "voucher". Payments that fail validation are dropped, matching
// the row-level policy of tabular ingestion.
func Records(payments []Payment) []domain.Record {
	out := make([]domain.Record, 0, len(payments))
	for _, p := range payments {
		rec := domain.Record{
			Date:        normalize.Date(p.Date),
			Amount:      normalize.Amount(p.Amount),
			Reference:   normalize.ExtractPV(p.Reference),
			Description: p.Description,
			Time:        p.Time,
			Page:        p.Page,
			Origin:      "voucher",
			IsQR:        p.IsQR,
		}
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
