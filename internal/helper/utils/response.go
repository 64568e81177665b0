package utils

import "github.com/gofiber/fiber/v2"

// All handlers answer through these helpers so the wire shape stays
// uniform: failures carry {"error": ...}, payloads {"data": ...} and
// plain confirmations {"message": ...}.

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}

func ResponseMessage(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{"message": msg})
}
