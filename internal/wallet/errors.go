package wallet

import "errors"

var (
	// ErrSpoofDetected means the liveness gate scored the image as a spoof.
	ErrSpoofDetected = errors.New("spoof detected")

	// ErrNoFaceDetected means the extractor found no face in the image.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrNoMatch means no stored identity satisfied the passphrase filter and
	// similarity requirement.
	ErrNoMatch = errors.New("no matching user")

	// ErrNotFound means no account exists for the queried wallet address.
	ErrNotFound = errors.New("account not found")

	// ErrSenderNotFound and ErrRecipientNotFound distinguish which side of a
	// transfer could not be resolved.
	ErrSenderNotFound    = errors.New("sender not found")
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrInsufficientBalance rejects a transfer exceeding the sender's funds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount rejects zero and negative transfer amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSelfTransfer rejects transfers where sender and recipient are the
	// same account.
	ErrSelfTransfer = errors.New("sender and recipient must differ")
)
