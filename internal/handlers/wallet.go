package handlers

import (
	"github.com/gofiber/fiber/v2"

	"payvo/internal/models"
	"payvo/internal/services/ledger"
	"payvo/internal/services/wallet"
	"payvo/internal/utils"
)

type WalletHandler struct {
	walletService wallet.Service
	ledgerService ledger.Service
}

func NewWalletHandler(walletService wallet.Service, ledgerService ledger.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		ledgerService: ledgerService,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// ownsWallet reports whether the caller may read the given wallet.
func ownsWallet(claims *models.UserClaims, w *models.Wallet) bool {
	return claims.Role == "admin" || w.UserID == claims.UserID
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.walletService.CreateWallet(c.Context(), claims.UserID, input.Currency, claims.KycTier)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Created(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	w, err := h.walletService.GetWallet(c.Context(), uint(walletID))
	if err != nil {
		return utils.Error(c, err)
	}
	if !ownsWallet(claims, w) {
		return utils.Forbidden(c, "wallet belongs to another user")
	}

	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	w, err := h.walletService.GetWallet(c.Context(), uint(walletID))
	if err != nil {
		return utils.Error(c, err)
	}
	if !ownsWallet(claims, w) {
		return utils.Forbidden(c, "wallet belongs to another user")
	}

	snapshot, err := h.walletService.GetBalance(c.Context(), uint(walletID))
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, snapshot)
}

func (h *WalletHandler) GetTransactionHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	w, err := h.walletService.GetWallet(c.Context(), uint(walletID))
	if err != nil {
		return utils.Error(c, err)
	}
	if !ownsWallet(claims, w) {
		return utils.Forbidden(c, "wallet belongs to another user")
	}

	pagination := utils.GetPagination(c, 1, 20)

	history, err := h.ledgerService.History(c.Context(), uint(walletID), pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, utils.NewPaginatedResponse(history, pagination))
}
