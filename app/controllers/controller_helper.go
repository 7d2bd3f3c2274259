package controllers

import (
	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Client-Info, Apikey"
)

// setCORSHeaders adds the headers the storefront needs to call the
// function endpoints from the browser.
func setCORSHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, corsAllowOrigin)
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
}

// handlePreflight answers OPTIONS with 200 and rejects every method other
// than POST. It returns handled=true when the response is already written.
func handlePreflight(c *fiber.Ctx) (bool, error) {
	setCORSHeaders(c)
	switch c.Method() {
	case fiber.MethodOptions:
		return true, c.SendStatus(fiber.StatusOK)
	case fiber.MethodPost:
		return false, nil
	default:
		return true, c.Status(fiber.StatusMethodNotAllowed).SendString("Method not allowed")
	}
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
