package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"payvo/internal/services/admin"
	"payvo/internal/services/wallet"
	"payvo/internal/utils"
)

type AdminHandler struct {
	gateway *admin.Gateway
}

func NewAdminHandler(gateway *admin.Gateway) *AdminHandler {
	return &AdminHandler{gateway: gateway}
}

func (h *AdminHandler) LockWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.gateway.Lock(c.Context(), uint(walletID), input.Reason, claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "wallet locked",
		"wallet":  w,
	})
}

func (h *AdminHandler) UnlockWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.gateway.Unlock(c.Context(), uint(walletID), input.Reason, claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "wallet unlocked",
		"wallet":  w,
	})
}

func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Amount        decimal.Decimal `json:"amount"`
		Type          string          `json:"type"`
		Reason        string          `json:"reason"`
		AllowNegative bool            `json:"allow_negative"`
		Reference     string          `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Type != wallet.DirectionCredit && input.Type != wallet.DirectionDebit {
		return utils.BadRequest(c, "type must be CREDIT or DEBIT")
	}

	w, entry, err := h.gateway.Adjust(c.Context(), admin.AdjustRequest{
		WalletID:      uint(walletID),
		Amount:        input.Amount,
		Direction:     input.Type,
		Reason:        input.Reason,
		ActorID:       claims.UserID,
		AllowNegative: input.AllowNegative,
	})
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":     "balance adjusted",
		"wallet":      w,
		"transaction": entry,
	})
}

func (h *AdminHandler) ResetLimits(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	w, err := h.gateway.ResetLimits(c.Context(), uint(walletID), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "spend limits reset",
		"wallet":  w,
	})
}

func (h *AdminHandler) ReverseTransaction(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	transactionID, err := c.ParamsInt("id")
	if err != nil || transactionID <= 0 {
		return utils.BadRequest(c, "invalid transaction id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	reversal, err := h.gateway.ReverseTransaction(c.Context(), uint(transactionID), input.Reason, claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":  "transaction reversed",
		"reversal": reversal,
	})
}
