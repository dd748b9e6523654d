package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxStatus is the settlement state of a wallet transaction.
type TxStatus string

const (
	// TxPending means the node returned no effects yet.
	TxPending TxStatus = "Pending"
	// TxConfirmed means the transaction executed successfully.
	TxConfirmed TxStatus = "Confirmed"
	// TxConflicting means the transaction executed and failed.
	TxConflicting TxStatus = "Conflicting"
)

// Final reports whether the status can no longer change.
func (s TxStatus) Final() bool { return s == TxConfirmed || s == TxConflicting }

// BlockRef locates a transaction by checkpoint sequence number and digest.
type BlockRef struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
}

// WalletTransaction is a transfer as the wallet presents it.
type WalletTransaction struct {
	Date            time.Time        `json:"date"`
	BlockNumberHash *BlockRef        `json:"block_number_hash,omitempty"`
	TransactionHash string           `json:"transaction_hash"`
	Sender          string           `json:"sender"`
	Receiver        string           `json:"receiver"`
	Amount          decimal.Decimal  `json:"amount"`
	NetworkKey      string           `json:"network_key"`
	Status          TxStatus         `json:"status"`
	ExplorerURL     *string          `json:"explorer_url,omitempty"`
	GasFee          *decimal.Decimal `json:"gas_fee,omitempty"`
	IsSender        bool             `json:"is_sender"`
}

// TransactionIntent is a request to send Amount to AddressTo.
type TransactionIntent struct {
	AddressTo string
	Amount    decimal.Decimal
}

// GasCostEstimation reports the expected gas of a transfer. The fee fields
// exist for EVM-style chains and stay zero here.
type GasCostEstimation struct {
	MaxFeePerGas         uint64 `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas uint64 `json:"max_priority_fee_per_gas"`
	GasLimit             uint64 `json:"gas_limit"`
}
