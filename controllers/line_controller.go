package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"leadflow/models"
	"leadflow/notify"
	"leadflow/store"
	"leadflow/utils"
)

// Postback verbs and the statuses they request.
var actionToStatus = map[string]string{
	"claim":       models.StatusContacted,
	"close":       models.StatusClosed,
	"lost":        models.StatusLost,
	"unreachable": models.StatusUnreachable,
}

type LineController struct {
	Store    *store.LeadStore
	Notifier notify.Notifier
}

func NewLineController(leads *store.LeadStore, notifier notify.Notifier) *LineController {
	return &LineController{Store: leads, Notifier: notifier}
}

// LINE webhook envelope, reduced to the fields this service reads.
type lineEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Postback struct {
		Data string `json:"data"`
	} `json:"postback"`
}

// HandleLineWebhook processes postback events from the sales chat: a rep
// tapping a claim card becomes an optimistic-lock status transition, and the
// outcome goes back as a reply. LINE always gets a 200 for a well-formed
// envelope; per-event failures are reported in the chat, not the response.
func (lc *LineController) HandleLineWebhook(c *fiber.Ctx) error {
	var envelope struct {
		Events []lineEvent `json:"events"`
	}
	if err := c.BodyParser(&envelope); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	for _, event := range envelope.Events {
		if event.Type != "postback" {
			continue
		}
		lc.handlePostback(c.Context(), event)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"events": len(envelope.Events)}))
}

func (lc *LineController) handlePostback(ctx context.Context, event lineEvent) {
	log := logrus.WithFields(logrus.Fields{
		"line_user_id": event.Source.UserID,
		"data":         event.Postback.Data,
	})

	data, err := utils.ParsePostbackData(event.Postback.Data)
	if err != nil {
		log.WithError(err).Warn("malformed postback data")
		lc.reply(ctx, event.ReplyToken, "Sorry, that action could not be read.")
		return
	}

	targetStatus, ok := actionToStatus[data.Action]
	if !ok {
		log.WithField("action", data.Action).Warn("unknown postback action")
		lc.reply(ctx, event.ReplyToken, fmt.Sprintf("Unknown action %q.", data.Action))
		return
	}

	rep, err := lc.Store.FindRepByLineID(ctx, event.Source.UserID)
	if err != nil {
		if errors.Is(err, utils.ErrRepNotFound) {
			lc.reply(ctx, event.ReplyToken, "You are not on the sales roster. Ask an admin to add you.")
		} else {
			log.WithError(err).Error("roster lookup failed")
			lc.reply(ctx, event.ReplyToken, "Something went wrong, please try again.")
		}
		return
	}

	// UID-keyed reference wins over the legacy row ordinal.
	var lead *models.Lead
	if data.HasUID() {
		lead, err = lc.Store.FindByUID(ctx, data.LeadUID)
	} else {
		lead, err = lc.Store.FindByRowID(ctx, data.RowID)
	}
	if err != nil {
		if errors.Is(err, utils.ErrLeadNotFound) {
			lc.reply(ctx, event.ReplyToken, "That lead no longer exists.")
		} else {
			log.WithError(err).Error("lead lookup failed")
			lc.reply(ctx, event.ReplyToken, "Something went wrong, please try again.")
		}
		return
	}

	updated, err := lc.Store.Transition(ctx, store.TransitionInput{
		LeadID:          lead.ID,
		ExpectedVersion: lead.Version,
		ToStatus:        targetStatus,
		Actor:           rep,
	})
	lc.reply(ctx, event.ReplyToken, transitionReply(lead, updated, rep, data.Action, err))
}

// transitionReply turns a transition outcome into the chat message the rep
// sees, distinguishing races from rule violations.
func transitionReply(lead, updated *models.Lead, rep *models.SalesRep, action string, err error) string {
	name := lead.Company
	if name == "" {
		name = lead.Email
	}

	switch {
	case err == nil:
		if action == "claim" {
			return fmt.Sprintf("✅ %s is yours, %s. Confidence %d/100.", name, rep.Name, updated.Confidence)
		}
		return fmt.Sprintf("✅ %s marked as %s.", name, updated.Status)
	case errors.Is(err, utils.ErrVersionConflict):
		return fmt.Sprintf("⚠️ Too late — %s was just updated by someone else.", name)
	case errors.Is(err, utils.ErrNotOwner):
		return fmt.Sprintf("⚠️ %s is claimed by another rep.", name)
	case errors.Is(err, utils.ErrInvalidTransition):
		return fmt.Sprintf("⚠️ %s is already %s; no further changes allowed.", name, lead.Status)
	case errors.Is(err, utils.ErrLeadNotFound):
		return "That lead no longer exists."
	default:
		logrus.WithError(err).Error("status transition failed")
		return "Something went wrong, please try again."
	}
}

func (lc *LineController) reply(ctx context.Context, replyToken, text string) {
	if replyToken == "" {
		return
	}
	if err := lc.Notifier.Reply(ctx, replyToken, text); err != nil {
		logrus.WithError(err).Warn("failed to reply to postback")
	}
}
