// Package passphrase generates the human-memorable multi-word secrets handed
// out at registration. Uniqueness is enforced against the identity store.
package passphrase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/blaze-wallet/blaze_wallet/internal/identstore"
)

// Words is the fixed passphrase length.
const Words = 7

// maxAttempts bounds the collision retry loop. With the 2048-word BIP-39
// vocabulary the ordered 7-word space is ~1.2e23, so a second attempt is
// already vanishingly rare.
const maxAttempts = 16

// ErrExhausted indicates every candidate drawn collided with an existing
// record. With a sane vocabulary this means the store is misbehaving.
var ErrExhausted = errors.New("passphrase: no unique candidate found")

// Allocator draws candidate passphrases and checks them against the store.
type Allocator struct {
	store identstore.Store
	words []string
}

// NewAllocator builds an allocator over the English BIP-39 word list.
func NewAllocator(store identstore.Store) *Allocator {
	return newAllocator(store, bip39.GetWordList())
}

func newAllocator(store identstore.Store, words []string) *Allocator {
	return &Allocator{store: store, words: words}
}

// Allocate returns a passphrase of Words distinct words, space-joined, that no
// existing record holds. This is a check-then-act loop: two concurrent
// registrations could in principle pass the check with the same candidate, so
// the caller should write the record immediately after allocation to keep the
// window narrow.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	if len(a.words) < Words {
		return "", fmt.Errorf("passphrase: vocabulary of %d words is too small", len(a.words))
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := a.sample()
		existing, err := a.store.FindByField(ctx, identstore.FieldPassphrase, candidate)
		if err != nil {
			return "", fmt.Errorf("passphrase uniqueness check: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// sample draws Words distinct words without replacement.
func (a *Allocator) sample() string {
	picked := make([]string, 0, Words)
	for _, idx := range rand.Perm(len(a.words))[:Words] {
		picked = append(picked, a.words[idx])
	}
	return strings.Join(picked, " ")
}
