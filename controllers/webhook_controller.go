package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"leadflow/enrich"
	"leadflow/models"
	"leadflow/notify"
	"leadflow/store"
	"leadflow/utils"
)

// enrichTimeout bounds the whole background pipeline for one lead.
const enrichTimeout = 2 * time.Minute

type WebhookController struct {
	Store       *store.LeadStore
	Analyzer    enrich.Analyzer
	Notifier    notify.Notifier
	DeadLetters *store.DeadLetterStore
	StatusCache *store.StatusCache
}

func NewWebhookController(
	leads *store.LeadStore,
	analyzer enrich.Analyzer,
	notifier notify.Notifier,
	deadLetters *store.DeadLetterStore,
	statusCache *store.StatusCache,
) *WebhookController {
	return &WebhookController{
		Store:       leads,
		Analyzer:    analyzer,
		Notifier:    notifier,
		DeadLetters: deadLetters,
		StatusCache: statusCache,
	}
}

// HandleCampaignEvent processes click/open/delivered events from the email
// campaign provider. Clicks run the dedup gate and create leads; the sender
// always gets a fast 200 unless the payload itself is malformed. Duplicate
// deliveries are acknowledged as already processed, never surfaced as errors
// that would make the provider retry.
func (wc *WebhookController) HandleCampaignEvent(c *fiber.Ctx) error {
	var input struct {
		EventType string `json:"event_type" validate:"required,oneof=click open delivered"`
		Email     string `json:"email" validate:"required,email"`
		Source    string `json:"source" validate:"omitempty,max=100"`
		Campaign  string `json:"campaign" validate:"omitempty,max=200"`
		Company   string `json:"company" validate:"omitempty,max=200"`
		Phone     string `json:"phone" validate:"omitempty,max=30"`
		Timestamp int64  `json:"timestamp"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email", err)
	}

	occurredAt := time.Now()
	if input.Timestamp > 0 {
		occurredAt = time.Unix(input.Timestamp, 0)
	}

	log := logrus.WithFields(logrus.Fields{
		"event_type": input.EventType,
		"email":      email,
		"source":     input.Source,
	})

	if err := wc.Store.RecordEvent(c.Context(), &models.LeadEvent{
		EventType:  input.EventType,
		Email:      email,
		Source:     input.Source,
		Campaign:   input.Campaign,
		OccurredAt: occurredAt,
	}); err != nil {
		log.WithError(err).Warn("failed to record lead event")
	}

	if input.EventType != "click" {
		return c.JSON(utils.SuccessResponse(fiber.Map{"received": input.EventType}))
	}

	correlationID := uuid.New().String()
	wc.StatusCache.Set(c.Context(), store.PipelineStatus{
		CorrelationID: correlationID,
		Stage:         store.StageReceived,
	})

	lead, err := wc.Store.CreateFromClick(c.Context(), store.ClickInput{
		Email:     email,
		Source:    input.Source,
		Campaign:  input.Campaign,
		Company:   input.Company,
		Phone:     utils.FormatPhone(input.Phone),
		ClickedAt: occurredAt,
	})
	if err != nil {
		if err == utils.ErrDuplicateLead {
			wc.StatusCache.Set(c.Context(), store.PipelineStatus{
				CorrelationID: correlationID,
				Stage:         store.StageDedup,
			})
			return c.JSON(utils.SuccessResponse(fiber.Map{
				"status":         "already_processed",
				"correlation_id": correlationID,
			}))
		}
		log.WithError(err).Error("failed to persist lead")
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Lead storage unavailable", err)
	}

	wc.StatusCache.Set(c.Context(), store.PipelineStatus{
		CorrelationID: correlationID,
		LeadUID:       lead.LeadUID,
		Stage:         store.StageSaved,
	})

	// Quick ack; enrichment and notification continue in the background.
	go wc.enrichAndNotify(correlationID, lead, input.Company)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"lead_uid":       lead.LeadUID,
		"correlation_id": correlationID,
	}))
}

// enrichAndNotify runs the post-persist pipeline. Enrichment failure degrades
// to the default analysis; the sales notification fires only after the lead
// and its analysis are durably stored, and a failed notification goes to the
// dead-letter list instead of being retried inline.
func (wc *WebhookController) enrichAndNotify(correlationID string, lead *models.Lead, company string) {
	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	log := logrus.WithFields(logrus.Fields{
		"lead_uid":       lead.LeadUID,
		"correlation_id": correlationID,
	})

	analysis, err := wc.Analyzer.Analyze(ctx, company, lead.Email)
	if err != nil {
		log.WithError(err).Warn("enrichment failed, using default analysis")
		analysis = enrich.DefaultAnalysis()
	}

	updates := map[string]interface{}{
		"industry":      analysis.Industry,
		"confidence":    analysis.Confidence,
		"talking_point": analysis.TalkingPoint,
	}
	if analysis.RegistrationID != "" {
		updates["registration_id"] = analysis.RegistrationID
	}
	if analysis.SectorCode != "" {
		updates["sector_code"] = analysis.SectorCode
	}
	if analysis.Province != "" {
		updates["province"] = analysis.Province
	}
	if analysis.Address != "" {
		updates["address"] = analysis.Address
	}
	if err := wc.Store.UpdateEnrichment(ctx, lead.ID, updates); err != nil {
		log.WithError(err).Error("failed to store enrichment")
	} else {
		lead.Industry = analysis.Industry
		lead.Confidence = analysis.Confidence
		lead.TalkingPoint = analysis.TalkingPoint
		wc.StatusCache.Set(ctx, store.PipelineStatus{
			CorrelationID: correlationID,
			LeadUID:       lead.LeadUID,
			Stage:         store.StageEnriched,
		})
	}

	if err := wc.Notifier.NotifyNewLead(ctx, lead); err != nil {
		log.WithError(err).Error("sales notification failed, queueing to dead letter")
		sentry.CaptureException(err)

		payload, _ := json.Marshal(fiber.Map{"lead_uid": lead.LeadUID})
		wc.DeadLetters.Push(ctx, store.DeadLetterEntry{
			Kind:    "notify",
			LeadUID: lead.LeadUID,
			Payload: string(payload),
		})
		wc.StatusCache.Set(ctx, store.PipelineStatus{
			CorrelationID: correlationID,
			LeadUID:       lead.LeadUID,
			Stage:         store.StageDegraded,
			Detail:        "notification deferred",
		})
		return
	}

	wc.StatusCache.Set(ctx, store.PipelineStatus{
		CorrelationID: correlationID,
		LeadUID:       lead.LeadUID,
		Stage:         store.StageNotified,
	})
}

// GetPipelineStatus looks up the processing stage for a correlation id.
func (wc *WebhookController) GetPipelineStatus(c *fiber.Ctx) error {
	status, ok := wc.StatusCache.Get(c.Context(), c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown or expired correlation id", nil)
	}
	return c.JSON(utils.SuccessResponse(status))
}
