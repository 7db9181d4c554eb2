package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// fieldMapper decides which request value goes into which detected field
type fieldMapper func(ctx context.Context, request *models.FormRequest, fields map[string]string, digest string) (map[string]string, error)

// runSession drives a full fill/approve/submit cycle. Both engines share
// this flow and differ only in how they map request values to form fields.
func runSession(ctx context.Context, job *models.Job, callbacks interfaces.Callbacks, config Config, mapper fieldMapper, logger arbor.ILogger) (*models.JobResult, error) {
	request := job.Request
	progress := func(pct int, step string) {
		if callbacks.Progress != nil {
			callbacks.Progress(pct, step)
		}
	}
	capture := func(png []byte) {
		if callbacks.Screenshot != nil {
			callbacks.Screenshot(png)
		}
	}

	// Per-request headless override falls back to the configured default
	headless := config.Headless
	if request.Headless != nil {
		headless = *request.Headless
	}

	progress(10, "Launching browser")
	sess, err := newSession(ctx, config, headless, logger)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	progress(20, "Navigating to target page")
	if err := sess.navigate(request.TargetURL, 30*time.Second); err != nil {
		return nil, err
	}

	// Continuous capture runs from here until the session ends, covering
	// the approval pause so reviewers see a live view.
	stopMonitor := sess.startMonitor(config.ScreenshotInterval, capture)
	defer stopMonitor()

	progress(30, "Analyzing page structure")
	html, err := sess.outerHTML()
	if err != nil {
		return nil, err
	}
	title, _ := sess.pageTitle()

	fields, err := detectFormFields(html)
	if err != nil {
		return nil, fmt.Errorf("failed to detect form fields: %w", err)
	}
	progress(35, fmt.Sprintf("Detected %d form fields", len(fields)))

	mapping, err := mapper(ctx, request, fields, pageDigest(html, request.TargetURL))
	if err != nil {
		logger.Warn().Err(err).Msg("Field mapping failed, falling back to heuristic matching")
		mapping = heuristicMapping(request, fields)
	}

	progress(45, "Filling form fields")
	filled := sess.fill(mapping, config.FillTimeout, progress)

	if len(request.UploadedFiles) > 0 {
		progress(72, "Attaching uploaded files")
		sess.uploadFiles(config.UploadsDir, request.UploadedFiles, config.UploadTimeout)
	}

	progress(78, "Form filled, capturing preview")
	if png, err := sess.screenshot(); err == nil {
		capture(png)
	}

	if request.RequiresApproval() && callbacks.Approval != nil {
		preview := models.NewFormPreview(job.ID, request)
		preview.PageTitle = title
		preview.FormFieldsDetected = fields
		preview.ScreenshotAvailable = true

		decision, err := callbacks.Approval(ctx, preview)
		if err != nil {
			return nil, fmt.Errorf("approval wait failed: %w", err)
		}
		if !decision.Approved {
			return &models.JobResult{
				Success:  false,
				Reason:   "Rejected by human reviewer",
				Message:  decision.Reason,
				FormData: filled,
			}, nil
		}
	}

	progress(82, "Submitting form")
	if err := sess.submit(config.SubmitTimeout); err != nil {
		return nil, err
	}

	progress(90, "Form submitted, capturing confirmation")
	if png, err := sess.screenshot(); err == nil {
		capture(png)
	}

	now := time.Now()
	return &models.JobResult{
		Success:        true,
		Message:        "Form submitted successfully",
		ConfirmationID: fmt.Sprintf("SUB-%d", now.Unix()),
		FormData:       filled,
		SubmittedAt:    &now,
	}, nil
}
