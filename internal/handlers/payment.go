package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"payvo/internal/models"
	"payvo/internal/services/ledger"
	"payvo/internal/services/payment"
	"payvo/internal/services/wallet"
	"payvo/internal/utils"
)

type PaymentHandler struct {
	paymentService payment.Service
	walletService  wallet.Service
}

func NewPaymentHandler(paymentService payment.Service, walletService wallet.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		walletService:  walletService,
	}
}

// resolveWallet finds the wallet an operation applies to: the explicit id
// when given (and owned by the caller), otherwise the caller's wallet in
// the requested currency.
func (h *PaymentHandler) resolveWallet(c *fiber.Ctx, claims *models.UserClaims, walletID uint, currency string) (*models.Wallet, error) {
	if walletID != 0 {
		w, err := h.walletService.GetWallet(c.Context(), walletID)
		if err != nil {
			return nil, err
		}
		if !ownsWallet(claims, w) {
			return nil, fiber.ErrForbidden
		}
		return w, nil
	}
	return h.walletService.GetWalletByUser(c.Context(), claims.UserID, currency)
}

func (h *PaymentHandler) Purchase(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		WalletID       uint            `json:"wallet_id"`
		ServiceType    string          `json:"service_type"`
		Provider       string          `json:"provider"`
		Amount         decimal.Decimal `json:"amount"`
		Reference      string          `json:"reference"`
		RedeemCashback bool            `json:"redeem_cashback"`
		Currency       string          `json:"currency"`
		Description    string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.resolveWallet(c, claims, input.WalletID, input.Currency)
	if err != nil {
		if err == fiber.ErrForbidden {
			return utils.Forbidden(c, "wallet belongs to another user")
		}
		return utils.Error(c, err)
	}

	result, err := h.paymentService.Purchase(c.Context(), payment.PurchaseRequest{
		WalletID:       w.ID,
		ServiceType:    input.ServiceType,
		Provider:       input.Provider,
		Amount:         input.Amount,
		Reference:      input.Reference,
		RedeemCashback: input.RedeemCashback,
		Description:    input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, result)
}

func (h *PaymentHandler) Withdraw(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		WalletID    uint            `json:"wallet_id"`
		Amount      decimal.Decimal `json:"amount"`
		Reference   string          `json:"reference"`
		Currency    string          `json:"currency"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.resolveWallet(c, claims, input.WalletID, input.Currency)
	if err != nil {
		if err == fiber.ErrForbidden {
			return utils.Forbidden(c, "wallet belongs to another user")
		}
		return utils.Error(c, err)
	}

	result, err := h.paymentService.Withdraw(c.Context(), payment.WithdrawRequest{
		WalletID:    w.ID,
		Amount:      input.Amount,
		Reference:   input.Reference,
		Description: input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, result)
}

func (h *PaymentHandler) Deposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		WalletID    uint            `json:"wallet_id"`
		Amount      decimal.Decimal `json:"amount"`
		Reference   string          `json:"reference"`
		Provider    string          `json:"provider"`
		Currency    string          `json:"currency"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	w, err := h.resolveWallet(c, claims, input.WalletID, input.Currency)
	if err != nil {
		if err == fiber.ErrForbidden {
			return utils.Forbidden(c, "wallet belongs to another user")
		}
		return utils.Error(c, err)
	}

	result, err := h.paymentService.Deposit(c.Context(), payment.DepositRequest{
		WalletID:    w.ID,
		Amount:      input.Amount,
		Reference:   input.Reference,
		Provider:    input.Provider,
		Description: input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, result)
}

func (h *PaymentHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		FromWalletID uint            `json:"from_wallet_id"`
		ToWalletID   uint            `json:"to_wallet_id"`
		Amount       decimal.Decimal `json:"amount"`
		Reference    string          `json:"reference"`
		Currency     string          `json:"currency"`
		Description  string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ToWalletID == 0 {
		return utils.BadRequest(c, "to_wallet_id is required")
	}

	source, err := h.resolveWallet(c, claims, input.FromWalletID, input.Currency)
	if err != nil {
		if err == fiber.ErrForbidden {
			return utils.Forbidden(c, "wallet belongs to another user")
		}
		return utils.Error(c, err)
	}

	result, err := h.paymentService.Transfer(c.Context(), payment.TransferRequest{
		FromWalletID: source.ID,
		ToWalletID:   input.ToWalletID,
		Amount:       input.Amount,
		Reference:    input.Reference,
		Description:  input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, result)
}

// ProviderCallback finalizes a pending transaction from a provider's
// success or failure signal. Replays of an already-final reference return
// the settled entry unchanged.
func (h *PaymentHandler) ProviderCallback(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return utils.BadRequest(c, "reference is required")
	}

	var input struct {
		Outcome string `json:"outcome"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	var outcome ledger.Outcome
	switch input.Outcome {
	case "success":
		outcome = ledger.OutcomeSuccess
	case "failure":
		outcome = ledger.OutcomeFailure
	default:
		return utils.BadRequest(c, "outcome must be success or failure")
	}

	entry, err := h.paymentService.Finalize(c.Context(), reference, outcome)
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Success(c, fiber.Map{"transaction": entry})
}
