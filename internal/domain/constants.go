package domain

// Wallet card networks.
const (
	CardVisa       = "Visa"
	CardMastercard = "Mastercard"
)

// Supported wallet currencies.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyRUB = "RUB"
)

// Transaction statuses. A transaction row is created FAILED and flips to PAID
// only inside the settlement transaction; there are no other transitions.
const (
	TxStatusPaid   = "PAID"
	TxStatusFailed = "FAILED"
)

// MaxUserWallets caps the number of wallets a single user may own.
const MaxUserWallets = 5

// DefaultFeeRate is the fee rate applied to transfers between wallets of
// different owners. The transaction row stores the rate, not the fee amount.
const DefaultFeeRate = "0.10"

// DefaultWalletNameLength is the generated wallet name length unless
// overridden by configuration.
const DefaultWalletNameLength = 8

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var cardTypes = map[string]struct{}{
	CardVisa:       {},
	CardMastercard: {},
}

var currencies = map[string]struct{}{
	CurrencyUSD: {},
	CurrencyEUR: {},
	CurrencyRUB: {},
}

// ValidCardType reports whether t names a supported card network.
func ValidCardType(t string) bool {
	_, ok := cardTypes[t]
	return ok
}

// ValidCurrency reports whether c names a supported currency code.
func ValidCurrency(c string) bool {
	_, ok := currencies[c]
	return ok
}

// Currencies returns the supported currency codes.
func Currencies() []string {
	return []string{CurrencyUSD, CurrencyEUR, CurrencyRUB}
}
