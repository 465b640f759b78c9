package domain

import "github.com/ethereum/go-ethereum/common"

// PaymentBackend pushes native currency to a buyer- or beneficiary-controlled
// account. A recipient may refuse the payment, in which case the backend
// returns ErrTransferRejected and no value moves.
type PaymentBackend interface {
	SendPayment(to common.Address, value int64) error
}

// AssetBackend delivers sold asset units to a buyer-controlled account.
// Like payments, deliveries may be refused by the recipient.
type AssetBackend interface {
	TransferAsset(to common.Address, amount int64) error
}
