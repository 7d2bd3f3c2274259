package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/downloads"
	"github.com/ManuelReschke/PayFox/internal/pkg/mail"
)

const defaultBonusCustomerName = "Valued Customer"

// BonusEmailController sends the download links of the bonus products that
// came with an order.
type BonusEmailController struct {
	products repository.ProductAccessRepository
	renderer *mail.Renderer
	mailer   mail.Mailer
	links    downloads.LinkSigner
}

func NewBonusEmailController(products repository.ProductAccessRepository, renderer *mail.Renderer, mailer mail.Mailer, links downloads.LinkSigner) *BonusEmailController {
	return &BonusEmailController{products: products, renderer: renderer, mailer: mailer, links: links}
}

func (bc *BonusEmailController) HandleSendBonusEmail(c *fiber.Ctx) error {
	if handled, err := handlePreflight(c); handled {
		return err
	}

	var req BonusEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Email and orderId are required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	grants, err := bc.products.ListBonusProducts(ctx, req.Email, req.OrderID)
	if err != nil {
		log.Errorf("[BonusEmail] Error fetching bonus products: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to fetch bonus products")
	}
	if len(grants) == 0 {
		return c.JSON(fiber.Map{"message": "No bonus products found for this order"})
	}

	links := make([]mail.BonusLink, 0, len(grants))
	for _, grant := range grants {
		url, err := bc.links.SignURL(ctx, grant.Product.DownloadURL)
		if err != nil {
			log.Errorf("[BonusEmail] Failed to sign download link for product %s: %v", grant.ProductID, err)
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}
		links = append(links, mail.BonusLink{Title: grant.Product.Title, URL: url})
	}

	name := req.CustomerName
	if name == "" {
		name = defaultBonusCustomerName
	}
	html, err := bc.renderer.RenderBonusEmail(mail.BonusEmailData{CustomerName: name, Products: links})
	if err != nil {
		log.Errorf("[BonusEmail] Failed to render bonus email: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	if err := bc.mailer.Send(ctx, mail.Message{To: req.Email, Subject: mail.BonusEmailSubject, HTML: html}); err != nil {
		log.Errorf("[BonusEmail] Failed to send bonus email to %s: %v", req.Email, err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	log.Infof("[BonusEmail] Sent %d bonus products to %s for order %s", len(links), req.Email, req.OrderID)
	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Bonus email sent successfully",
		"email":      req.Email,
		"bonusCount": len(links),
	})
}
