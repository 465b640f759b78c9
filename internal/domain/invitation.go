package domain

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// InvitationChecker validates presale invitations: a 65-byte ECDSA signature
// by the configured signer over the eth_sign text hash of the invitee's raw
// address bytes. The payload carries no nonce or expiry, so a signature stays
// valid indefinitely; reuse is bounded only by the one-order-per-creator rule.
type InvitationChecker struct {
	signer common.Address
}

// NewInvitationChecker creates a checker trusting the given signer address.
func NewInvitationChecker(signer common.Address) *InvitationChecker {
	return &InvitationChecker{signer: signer}
}

// Authorized reports whether signature is a valid invitation for invitee.
func (c *InvitationChecker) Authorized(invitee common.Address, signature []byte) bool {
	if len(signature) != crypto.SignatureLength {
		return false
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	// Accept both the raw recovery id and the legacy 27/28 convention.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	hash := accounts.TextHash(invitee.Bytes())
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == c.signer
}
