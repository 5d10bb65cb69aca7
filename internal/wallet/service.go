// Package wallet binds the liveness gate, identity extractor, passphrase
// allocator and identity store into the four account operations: register,
// authenticate, balance/address queries and transfer. It owns the consistency
// rules for balances.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blaze-wallet/blaze_wallet/internal/identstore"
	"github.com/blaze-wallet/blaze_wallet/internal/journal"
	"github.com/blaze-wallet/blaze_wallet/internal/liveness"
	"github.com/blaze-wallet/blaze_wallet/internal/metrics"
	"github.com/blaze-wallet/blaze_wallet/internal/notification"
)

// addressAttempts bounds the wallet address collision retry loop. The 160-bit
// space makes a second attempt effectively unreachable.
const addressAttempts = 8

// LivenessGate scores an image for spoofing. Scores at or above
// liveness.SpoofThreshold abort the operation.
type LivenessGate interface {
	Assess(ctx context.Context, imageBytes []byte) (float64, error)
}

// VectorExtractor yields at most one face embedding per image; nil means no
// face was found.
type VectorExtractor interface {
	Extract(ctx context.Context, imageBytes []byte) ([]float32, error)
}

// PassphraseAllocator returns a store-unique passphrase.
type PassphraseAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

// ServiceConfig wires the directory's collaborators. Journal and Notifier are
// optional; everything else is required.
type ServiceConfig struct {
	Store       identstore.Store
	Gate        LivenessGate
	Extractor   VectorExtractor
	Passphrases PassphraseAllocator
	Journal     journal.Journal
	Notifier    notification.Notifier
	Logger      *slog.Logger

	// MinSimilarity is the lowest cosine similarity accepted on login. Zero
	// disables the check and reproduces the passphrase-filter-only matching
	// of the original design.
	MinSimilarity float64
}

// Service implements the wallet directory. It holds no durable state; every
// operation is a request-scoped transaction over the identity store.
type Service struct {
	store         identstore.Store
	gate          LivenessGate
	extractor     VectorExtractor
	passphrases   PassphraseAllocator
	journal       journal.Journal
	notifier      notification.Notifier
	logger        *slog.Logger
	locks         *accountLocks
	minSimilarity float64
}

// NewService builds a wallet directory.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         cfg.Store,
		gate:          cfg.Gate,
		extractor:     cfg.Extractor,
		passphrases:   cfg.Passphrases,
		journal:       cfg.Journal,
		notifier:      cfg.Notifier,
		logger:        logger,
		locks:         newAccountLocks(),
		minSimilarity: cfg.MinSimilarity,
	}
}

// verifyLiveFace runs the biometric gate shared by every account-sensitive
// operation: liveness first, then face extraction.
func (s *Service) verifyLiveFace(ctx context.Context, imageBytes []byte) ([]float32, error) {
	score, err := s.gate.Assess(ctx, imageBytes)
	if err != nil {
		return nil, err
	}
	metrics.LivenessScore.Observe(score)
	if liveness.IsSpoof(score) {
		metrics.SpoofRejectionsTotal.Inc()
		s.logger.Info("liveness gate rejected image", "score", score)
		return nil, ErrSpoofDetected
	}

	vector, err := s.extractor.Extract(ctx, imageBytes)
	if err != nil {
		return nil, err
	}
	if vector == nil {
		metrics.NoFaceRejectionsTotal.Inc()
		return nil, ErrNoFaceDetected
	}
	return vector, nil
}

// Register enrolls a new identity and returns its wallet address and
// passphrase. The address is checked for uniqueness before use.
func (s *Service) Register(ctx context.Context, imageBytes []byte, displayName string) (RegisterResult, error) {
	vector, err := s.verifyLiveFace(ctx, imageBytes)
	if err != nil {
		return RegisterResult{}, err
	}

	address, err := s.newWalletAddress(ctx)
	if err != nil {
		return RegisterResult{}, err
	}

	passphrase, err := s.passphrases.Allocate(ctx)
	if err != nil {
		return RegisterResult{}, err
	}

	rec := identstore.Record{
		ID:            uuid.NewString(),
		Vector:        vector,
		Name:          displayName,
		WalletAddress: address,
		Passphrase:    passphrase,
		Balance:       DefaultBalance,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return RegisterResult{}, fmt.Errorf("store registration: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.logger.Info("identity registered", "wallet_address", address, "name", displayName)
	return RegisterResult{WalletAddress: address, Passphrase: passphrase}, nil
}

// newWalletAddress draws 0x-prefixed 40-hex-char addresses until one is
// unused.
func (s *Service) newWalletAddress(ctx context.Context) (string, error) {
	for attempt := 0; attempt < addressAttempts; attempt++ {
		address := randomAddress()
		existing, err := s.store.FindByField(ctx, identstore.FieldWalletAddress, address)
		if err != nil {
			return "", fmt.Errorf("address uniqueness check: %w", err)
		}
		if existing == nil {
			return address, nil
		}
	}
	return "", errors.New("wallet address collisions exhausted retries")
}

func randomAddress() string {
	raw := fmt.Sprintf("%x%x", uuid.New(), uuid.New())
	return "0x" + raw[:40]
}

// Authenticate matches a live face against the record filtered by the exact
// passphrase, returning the account's public fields and the similarity score.
func (s *Service) Authenticate(ctx context.Context, imageBytes []byte, passphrase string) (AuthResult, error) {
	vector, err := s.verifyLiveFace(ctx, imageBytes)
	if err != nil {
		return AuthResult{}, err
	}

	match, err := s.store.SearchNearest(ctx, vector, identstore.FieldPassphrase, passphrase)
	if err != nil {
		return AuthResult{}, fmt.Errorf("identity search: %w", err)
	}
	if match == nil {
		metrics.AuthenticationsTotal.WithLabelValues("no_match").Inc()
		return AuthResult{}, ErrNoMatch
	}
	if match.Score < s.minSimilarity {
		metrics.AuthenticationsTotal.WithLabelValues("below_threshold").Inc()
		s.logger.Info("similarity below threshold",
			"wallet_address", match.Record.WalletAddress,
			"score", match.Score,
			"threshold", s.minSimilarity)
		return AuthResult{}, ErrNoMatch
	}

	metrics.AuthenticationsTotal.WithLabelValues("success").Inc()
	return AuthResult{
		User: AuthenticatedUser{
			Name:          match.Record.Name,
			WalletAddress: match.Record.WalletAddress,
			Passphrase:    match.Record.Passphrase,
			Balance:       match.Record.Balance,
		},
		Similarity: match.Score,
	}, nil
}

// Transfer moves amount from sender to recipient. The sender must present a
// live face; the face is not matched against the sender's stored vector, so
// the enforced model is "any live face plus correct addresses". Balance
// mutations for the two accounts are serialized through per-address locks,
// with external model calls kept outside the critical section.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	sender := strings.ToLower(strings.TrimSpace(input.SenderAddress))
	recipient := strings.TrimSpace(input.RecipientAddress)

	if input.Amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	if sender == strings.ToLower(recipient) {
		return TransferResult{}, ErrSelfTransfer
	}

	if _, err := s.verifyLiveFace(ctx, input.Image); err != nil {
		return TransferResult{}, err
	}

	unlock := s.locks.lockPair(sender, strings.ToLower(recipient))
	defer unlock()

	senderRec, err := s.store.FindByField(ctx, identstore.FieldWalletAddress, sender)
	if err != nil {
		return TransferResult{}, fmt.Errorf("resolve sender: %w", err)
	}
	if senderRec == nil {
		return TransferResult{}, ErrSenderNotFound
	}

	recipientRec, err := s.store.FindByField(ctx, identstore.FieldWalletAddress, recipient)
	if err != nil {
		return TransferResult{}, fmt.Errorf("resolve recipient: %w", err)
	}
	if recipientRec == nil {
		return TransferResult{}, ErrRecipientNotFound
	}

	if senderRec.Balance < input.Amount {
		return TransferResult{}, ErrInsufficientBalance
	}

	newSenderBalance := senderRec.Balance - input.Amount
	newRecipientBalance := recipientRec.Balance + input.Amount

	if err := s.store.PatchBalance(ctx, senderRec.ID, newSenderBalance); err != nil {
		return TransferResult{}, fmt.Errorf("debit sender: %w", err)
	}
	if err := s.store.PatchBalance(ctx, recipientRec.ID, newRecipientBalance); err != nil {
		// Undo the debit so funds are not destroyed. If the store is down the
		// compensation can fail too; that residue is logged loudly.
		if undoErr := s.store.PatchBalance(ctx, senderRec.ID, senderRec.Balance); undoErr != nil {
			s.logger.Error("transfer compensation failed, sender debited without credit",
				"sender", sender, "recipient", recipient, "amount", input.Amount, "error", undoErr)
		} else {
			s.logger.Warn("transfer rolled back after credit failure",
				"sender", sender, "recipient", recipient, "amount", input.Amount)
		}
		return TransferResult{}, fmt.Errorf("credit recipient: %w", err)
	}

	metrics.TransfersTotal.Inc()
	completedAt := time.Now().UTC()

	if s.journal != nil {
		entry := journal.Entry{
			ID:               uuid.NewString(),
			SenderAddress:    sender,
			RecipientAddress: recipient,
			Amount:           input.Amount,
			SenderBalance:    newSenderBalance,
			RecipientBalance: newRecipientBalance,
			CreatedAt:        completedAt,
		}
		if err := s.journal.Record(ctx, entry); err != nil {
			s.logger.Warn("journal write failed", "sender", sender, "recipient", recipient, "error", err)
		}
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransfer,
			Destination: recipient,
			Body:        fmt.Sprintf("You received %.2f from %s", input.Amount, sender),
		})
	}

	return TransferResult{
		SenderBalance:    newSenderBalance,
		RecipientBalance: newRecipientBalance,
		CompletedAt:      completedAt,
	}, nil
}

// Balance returns the public fields of the account at the given address.
func (s *Service) Balance(ctx context.Context, address string) (AccountSummary, error) {
	rec, err := s.lookup(ctx, address)
	if err != nil {
		return AccountSummary{}, err
	}
	return AccountSummary{Name: rec.Name, WalletAddress: rec.WalletAddress, Balance: rec.Balance}, nil
}

// Address confirms an account exists and returns its canonical address.
func (s *Service) Address(ctx context.Context, address string) (string, error) {
	rec, err := s.lookup(ctx, address)
	if err != nil {
		return "", err
	}
	return rec.WalletAddress, nil
}

// History lists the most recent transfers touching the account, newest first.
func (s *Service) History(ctx context.Context, address string, limit int) ([]journal.Entry, error) {
	rec, err := s.lookup(ctx, address)
	if err != nil {
		return nil, err
	}
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListByAddress(ctx, rec.WalletAddress, limit)
}

func (s *Service) lookup(ctx context.Context, address string) (*identstore.Record, error) {
	rec, err := s.store.FindByField(ctx, identstore.FieldWalletAddress, strings.TrimSpace(address))
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}
