package worker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/jobs"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/voucher"
)

type mockStorage struct {
	data []byte
	err  error
}

func (m *mockStorage) Upload(ctx context.Context, bucket, object string, r io.Reader) (string, error) {
	return "gs://" + bucket + "/" + object, nil
}

func (m *mockStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.data, m.err
}

type mockExtractor struct {
	payments []voucher.Payment
	err      error
}

func (m *mockExtractor) Extract(ctx context.Context, data []byte, mimeType string) ([]voucher.Payment, error) {
	return m.payments, m.err
}

func TestExtractHandler(t *testing.T) {
	store := &mockStorage{data: []byte("pdf bytes")}
	extractor := &mockExtractor{payments: []voucher.Payment{
		{Date: "2024-01-15", Amount: 100.00, Reference: "PV047", IsQR: true, Page: 1},
		{Date: "", Amount: 50.00}, // invalid, filtered during normalization
	}}

	handler := ExtractHandler(store, extractor, zerolog.Nop())

	job := &jobs.ExtractVoucherJob{JobID: "j1", GCSURI: "gs://vouchers/a.pdf", MIMEType: "application/pdf"}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(job.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(job.Records))
	}
	if job.Records[0].Reference != "PV047" || job.Records[0].Origin != "voucher" {
		t.Errorf("record = %+v", job.Records[0])
	}
}

func TestExtractHandlerFetchError(t *testing.T) {
	store := &mockStorage{err: errors.New("object not found")}
	handler := ExtractHandler(store, &mockExtractor{}, zerolog.Nop())

	job := &jobs.ExtractVoucherJob{JobID: "j1", GCSURI: "gs://vouchers/missing.pdf"}
	if err := handler(context.Background(), job); err == nil {
		t.Error("expected error from failed fetch")
	}
}

func TestExtractHandlerExtractError(t *testing.T) {
	handler := ExtractHandler(&mockStorage{}, &mockExtractor{err: errors.New("model unavailable")}, zerolog.Nop())

	job := &jobs.ExtractVoucherJob{JobID: "j1", GCSURI: "gs://vouchers/a.pdf"}
	if err := handler(context.Background(), job); err == nil {
		t.Error("expected error from failed extraction")
	}
}

func TestExtractHandlerWrongJobType(t *testing.T) {
	handler := ExtractHandler(&mockStorage{}, &mockExtractor{}, zerolog.Nop())

	if err := handler(context.Background(), fakeJob{}); err == nil {
		t.Error("expected error for unexpected job type")
	}
}

type fakeJob struct{}

func (fakeJob) GetID() string             { return "x" }
func (fakeJob) GetType() jobs.JobType     { return "other" }
func (fakeJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }
