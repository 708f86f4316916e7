// Package worker wires the voucher extraction pipeline into a job
// handler: fetch the uploaded file from GCS, run the model, normalize
// the extracted payments and attach them to the job.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/jobs"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/storage"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/voucher"
)

// ExtractHandler returns the job handler that processes voucher
// extraction jobs. A returned error marks the job for retry.
func ExtractHandler(store storage.Service, extractor voucher.Extractor, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		extractJob, ok := job.(*jobs.ExtractVoucherJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", extractJob.JobID).
			Str("gcs_uri", extractJob.GCSURI).
			Msg("Processing extraction job")

		data, err := store.Fetch(ctx, extractJob.GCSURI)
		if err != nil {
			return fmt.Errorf("fetching voucher: %w", err)
		}

		payments, err := extractor.Extract(ctx, data, extractJob.MIMEType)
		if err != nil {
			return fmt.Errorf("extracting payments: %w", err)
		}

		extractJob.Records = voucher.Records(payments)

		log.Info().
			Str("job_id", extractJob.JobID).
			Int("extracted", len(payments)).
			Int("valid", len(extractJob.Records)).
			Msg("Extraction job completed")

		return nil
	}
}
