// Package wallet defines the user balance record, the system's sole
// persisted state.
package wallet

// Balance is one user's token count. A user with no stored record has an
// implicit balance of zero.
type Balance struct {
	UserID string `json:"user_id"`
	Tokens int64  `json:"tokens"`
}
