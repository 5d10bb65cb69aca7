package wallet

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/blaze-wallet/blaze_wallet/internal/faceid"
	"github.com/blaze-wallet/blaze_wallet/internal/liveness"
)

const historyLimit = 50

// Handler exposes the wallet HTTP endpoints. Every operation takes a typed
// multipart form; the legacy raw-body mode is intentionally not supported.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register enrolls a face and returns the generated wallet address and
// passphrase.
func (h *Handler) Register(c *fiber.Ctx) error {
	imageBytes, err := formImage(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "No image file provided")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return fail(c, http.StatusBadRequest, "Display name is required")
	}

	res, err := h.service.Register(c.UserContext(), imageBytes, name)
	if err != nil {
		switch {
		case errors.Is(err, ErrSpoofDetected):
			return fail(c, http.StatusOK, "Spoof detected. Please try again.")
		case errors.Is(err, ErrNoFaceDetected):
			return fail(c, http.StatusOK, "No face detected in the image. Please try again.")
		case errors.Is(err, liveness.ErrDecode), errors.Is(err, faceid.ErrDecode):
			return fail(c, http.StatusBadRequest, "Could not decode the provided image")
		default:
			h.logger.Error("registration failed", "error", err)
			return fail(c, http.StatusInternalServerError, "Error during registration. Please try again later.")
		}
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Face registration successful",
		"wallet_address": res.WalletAddress,
		"passphrase":     res.Passphrase,
	})
}

// Login authenticates a face plus passphrase pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	imageBytes, err := formImage(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "No image file provided")
	}
	passphrase := c.FormValue("passphrase")
	if passphrase == "" {
		return fail(c, http.StatusBadRequest, "Passphrase is required")
	}

	res, err := h.service.Authenticate(c.UserContext(), imageBytes, passphrase)
	if err != nil {
		switch {
		case errors.Is(err, ErrSpoofDetected):
			return fail(c, http.StatusOK, "Spoof detected. Authentication failed.")
		case errors.Is(err, ErrNoFaceDetected):
			return fail(c, http.StatusOK, "No face detected in the image. Authentication failed.")
		case errors.Is(err, ErrNoMatch):
			return fail(c, http.StatusOK, "No matching user found.")
		case errors.Is(err, liveness.ErrDecode), errors.Is(err, faceid.ErrDecode):
			return fail(c, http.StatusBadRequest, "Could not decode the provided image")
		default:
			h.logger.Error("authentication failed", "error", err)
			return fail(c, http.StatusInternalServerError, "Authentication error. Please try again later.")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Authentication successful",
		"user": fiber.Map{
			"name":           res.User.Name,
			"wallet_address": res.User.WalletAddress,
			"passphrase":     res.User.Passphrase,
			"balance":        res.User.Balance,
		},
		"similarity_score": res.Similarity,
	})
}

// Dashboard returns the public account fields for a wallet address.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	address := c.Query("wallet_address")
	if address == "" {
		return fail(c, http.StatusBadRequest, "wallet_address is required")
	}

	summary, err := h.service.Balance(c.UserContext(), address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.logger.Error("balance query failed", "error", err)
		return fail(c, http.StatusInternalServerError, "Error fetching user data")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"name":           summary.Name,
			"balance":        summary.Balance,
			"wallet_address": summary.WalletAddress,
		},
	})
}

// Send executes a transfer authorized by the sender's live face.
func (h *Handler) Send(c *fiber.Ctx) error {
	imageBytes, err := formImage(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Missing required fields")
	}
	sender := c.FormValue("sender_address")
	recipient := c.FormValue("recipient_address")
	rawAmount := c.FormValue("amount")
	if sender == "" || recipient == "" || rawAmount == "" {
		return fail(c, http.StatusBadRequest, "Missing required fields")
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid amount")
	}

	_, err = h.service.Transfer(c.UserContext(), TransferInput{
		Image:            imageBytes,
		SenderAddress:    sender,
		RecipientAddress: recipient,
		Amount:           amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSpoofDetected):
			return fail(c, http.StatusOK, "Spoof detected. Transaction failed.")
		case errors.Is(err, ErrNoFaceDetected):
			return fail(c, http.StatusOK, "No face detected. Transaction failed.")
		case errors.Is(err, ErrSenderNotFound):
			return fail(c, http.StatusOK, "Sender not found")
		case errors.Is(err, ErrRecipientNotFound):
			return fail(c, http.StatusOK, "Recipient not found")
		case errors.Is(err, ErrInsufficientBalance):
			return fail(c, http.StatusOK, "Insufficient balance")
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSelfTransfer):
			return fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, liveness.ErrDecode), errors.Is(err, faceid.ErrDecode):
			return fail(c, http.StatusBadRequest, "Could not decode the provided image")
		default:
			h.logger.Error("transfer failed", "error", err)
			return fail(c, http.StatusInternalServerError, "Transaction error. Please try again later.")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Transaction successful",
	})
}

// Receive confirms an address exists so it can be shared for incoming
// transfers.
func (h *Handler) Receive(c *fiber.Ctx) error {
	address := c.Query("wallet_address")
	if address == "" {
		return fail(c, http.StatusBadRequest, "wallet_address is required")
	}

	canonical, err := h.service.Address(c.UserContext(), address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.logger.Error("address query failed", "error", err)
		return fail(c, http.StatusInternalServerError, "Error fetching wallet address")
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"wallet_address": canonical,
	})
}

// History lists recent transfers touching a wallet address.
func (h *Handler) History(c *fiber.Ctx) error {
	address := c.Query("wallet_address")
	if address == "" {
		return fail(c, http.StatusBadRequest, "wallet_address is required")
	}

	entries, err := h.service.History(c.UserContext(), address, historyLimit)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.logger.Error("history query failed", "error", err)
		return fail(c, http.StatusInternalServerError, "Error fetching transfer history")
	}

	transfers := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		transfers = append(transfers, fiber.Map{
			"id":                e.ID,
			"sender_address":    e.SenderAddress,
			"recipient_address": e.RecipientAddress,
			"amount":            e.Amount,
			"created_at":        e.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"transfers": transfers,
	})
}

// formImage reads the uploaded image field from a multipart form.
func formImage(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}
