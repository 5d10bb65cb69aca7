package wallet

import "time"

// DefaultBalance is credited to every freshly registered account.
const DefaultBalance = 50.0

// RegisterResult is handed back to a newly registered user. The passphrase is
// shown exactly once, here.
type RegisterResult struct {
	WalletAddress string
	Passphrase    string
}

// AuthenticatedUser carries the account fields returned on login.
type AuthenticatedUser struct {
	Name          string
	WalletAddress string
	Passphrase    string
	Balance       float64
}

// AuthResult pairs the matched account with its similarity score.
type AuthResult struct {
	User       AuthenticatedUser
	Similarity float64
}

// AccountSummary is the public view of an account for balance queries.
type AccountSummary struct {
	Name          string
	WalletAddress string
	Balance       float64
}

// TransferInput captures one requested transfer. The image is the sender's
// live capture.
type TransferInput struct {
	Image            []byte
	SenderAddress    string
	RecipientAddress string
	Amount           float64
}

// TransferResult describes the committed outcome of a transfer.
type TransferResult struct {
	SenderBalance    float64
	RecipientBalance float64
	CompletedAt      time.Time
}
