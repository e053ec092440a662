package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
)

type createWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

// HandleAPIListWebhooks lists a waitlist's webhook targets.
func HandleAPIListWebhooks(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	webhooks, err := repository.GetGlobalFactory().GetWebhookRepository().GetByWaitlist(waitlist.ID)
	if err != nil {
		return respondInternalError(c, "Failed to list webhooks")
	}
	return c.JSON(fiber.Map{"data": webhooks})
}

// HandleAPICreateWebhook registers a webhook target. Events default to all
// supported events; a signing secret is generated when none is supplied.
func HandleAPICreateWebhook(c *fiber.Ctx) error {
	waitlist, err := requireOwnedWaitlist(c, c.Params("id"))
	if waitlist == nil {
		return err
	}

	var req createWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "Invalid request body")
	}

	for _, event := range req.Events {
		if event != models.WebhookEventNewSignup && event != models.WebhookEventOffboarded {
			return respondBadRequest(c, "Unknown webhook event: "+event)
		}
	}

	webhook, err := models.NewWebhook(waitlist.ID, req.URL, req.Events, req.Secret)
	if err != nil {
		return respondBadRequest(c, "Invalid webhook: url is required and must be valid")
	}

	if err := repository.GetGlobalFactory().GetWebhookRepository().Create(webhook); err != nil {
		return respondInternalError(c, "Failed to create webhook")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": webhook})
}

// HandleAPIDeleteWebhook removes a webhook target.
func HandleAPIDeleteWebhook(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetWebhookRepository()

	webhook, err := repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "Webhook not found")
		}
		return respondInternalError(c, "Failed to load webhook")
	}

	waitlist, werr := requireOwnedWaitlist(c, webhook.WaitlistID)
	if waitlist == nil {
		return werr
	}

	if err := repo.Delete(webhook.ID); err != nil {
		return respondInternalError(c, "Failed to delete webhook")
	}
	return c.JSON(fiber.Map{"message": "Webhook deleted"})
}
