package controller

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"leadflow/models"
	"leadflow/store"
	"leadflow/utils"
)

type LeadController struct {
	Store *store.LeadStore
}

func NewLeadController(leads *store.LeadStore) *LeadController {
	return &LeadController{Store: leads}
}

// GetLeads returns a paginated, filtered lead listing.
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !models.ValidStatus(status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown status filter", nil)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	leads, total, err := lc.Store.List(c.Context(), store.ListFilter{
		Status:  status,
		Source:  c.Query("source"),
		OwnerID: utils.ParseUint(c.Query("owner_id")),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list leads", err)
	}

	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  leads,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// GetLead resolves a lead by canonical UID or legacy row ordinal.
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := lc.resolve(c)
	if err != nil {
		return lc.translateError(c, err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// GetLeadHistory returns the transition audit trail, oldest first.
func (lc *LeadController) GetLeadHistory(c *fiber.Ctx) error {
	lead, err := lc.resolve(c)
	if err != nil {
		return lc.translateError(c, err)
	}
	history, err := lc.Store.History(c.Context(), lead.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load history", err)
	}
	return c.JSON(utils.SuccessResponse(history))
}

// UpdateLeadStatus is the dashboard's claim/transition endpoint: the same
// optimistic-lock path the chat postbacks use, with explicit error codes so
// the client can distinguish a race from a rule violation.
func (lc *LeadController) UpdateLeadStatus(c *fiber.Ctx) error {
	rep := c.Locals("rep").(*models.SalesRep)

	var input struct {
		Status          string `json:"status" validate:"required,oneof=contacted closed lost unreachable"`
		ExpectedVersion int    `json:"expected_version" validate:"required,min=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := lc.resolve(c)
	if err != nil {
		return lc.translateError(c, err)
	}

	updated, err := lc.Store.Transition(c.Context(), store.TransitionInput{
		LeadID:          lead.ID,
		ExpectedVersion: input.ExpectedVersion,
		ToStatus:        input.Status,
		Actor:           rep,
	})
	if err != nil {
		return lc.translateError(c, err)
	}
	return c.JSON(utils.SuccessResponse(updated))
}

// exportPageSize is the DB page size for CSV exports.
const exportPageSize = 100

// ExportLeads streams the current filter selection as CSV, paging through the
// whole selection rather than capping it.
func (lc *LeadController) ExportLeads(c *fiber.Ctx) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"lead_uid", "email", "source", "campaign", "company", "status", "owner", "confidence", "industry", "clicked_at"})

	for page := 1; ; page++ {
		leads, _, err := lc.Store.List(c.Context(), store.ListFilter{
			Status: c.Query("status"),
			Source: c.Query("source"),
			Page:   page,
			Limit:  exportPageSize,
		})
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list leads", err)
		}

		for _, lead := range leads {
			owner := ""
			if lead.Owner != nil {
				owner = lead.Owner.Name
			}
			_ = w.Write([]string{
				lead.LeadUID,
				lead.Email,
				lead.Source,
				lead.Campaign,
				lead.Company,
				lead.Status,
				owner,
				strconv.Itoa(lead.Confidence),
				lead.Industry,
				lead.ClickedAt.Format(time.RFC3339),
			})
		}
		if len(leads) < exportPageSize {
			break
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=leads-%s.csv", time.Now().Format("2006-01-02")))
	return c.Send(buf.Bytes())
}

// resolve picks the lead named by the :id path parameter, preferring the
// canonical UID form.
func (lc *LeadController) resolve(c *fiber.Ctx) (*models.Lead, error) {
	id := c.Params("id")
	if utils.IsValidLeadUID(id) {
		return lc.Store.FindByUID(c.Context(), id)
	}
	rowID := utils.ParseUint(id)
	if rowID == 0 {
		return nil, utils.ErrLeadNotFound
	}
	return lc.Store.FindByRowID(c.Context(), rowID)
}

// translateError maps domain errors onto the HTTP codes dashboard clients
// rely on: 404 missing, 409 race, 403 ownership, 422 state-machine violation.
func (lc *LeadController) translateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, utils.ErrLeadNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	case errors.Is(err, utils.ErrVersionConflict):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Lead was modified concurrently, reload and retry", nil)
	case errors.Is(err, utils.ErrNotOwner):
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Lead is claimed by another rep", nil)
	case errors.Is(err, utils.ErrInvalidTransition):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Status transition not allowed", nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal error", err)
	}
}
