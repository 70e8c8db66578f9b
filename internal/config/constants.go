package config

import (
	"math/big"
	"time"
)

// Transaction parameters used by the sale controller.
var (
	PurchaseValueWei = big.NewInt(1) // value sent with buyTokens
	BurnAmount       = big.NewInt(1) // tokens burned per "get coffee"
)

// Timeout constants used across cmd.
const (
	DialTimeout      = 10 * time.Second // connecting to the ledger node
	TxConfirmTimeout = 3 * time.Minute  // one-shot CLI transaction confirmation wait
)
