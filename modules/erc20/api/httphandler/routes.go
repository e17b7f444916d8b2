package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/erc20")

	r.Get("/checkpoint", h.GetCheckpoint)
	r.Get("/contracts", h.GetContracts)
	r.Get("/contracts/:address", h.GetContract)
	return nil
}
