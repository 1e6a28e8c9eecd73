package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/warp-contracts/vault/src/vault"
)

// Another request with the same Idempotency-Key hasn't finished yet
var ErrRequestInProgress = errors.New("request with this idempotency key is in progress")

type Error struct {
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

var codes = []struct {
	err    error
	code   string
	status int
}{
	{vault.ErrZeroAmount, "zero_amount", http.StatusBadRequest},
	{vault.ErrAlreadyStaked, "already_staked", http.StatusConflict},
	{vault.ErrNoStakedBalance, "no_staked_balance", http.StatusConflict},
	{vault.ErrNoPendingRedemption, "no_pending_redemption", http.StatusConflict},
	{vault.ErrInvalidReferrer, "invalid_referrer", http.StatusBadRequest},
	{vault.ErrAlreadyHasReferrer, "already_has_referrer", http.StatusConflict},
	{vault.ErrUnauthorized, "unauthorized", http.StatusForbidden},
	{vault.ErrInvalidAddress, "invalid_address", http.StatusBadRequest},
	{vault.ErrBelowMinimumRedemption, "below_minimum_redemption", http.StatusBadRequest},
	{vault.ErrCannotWithdrawOwnAsset, "cannot_withdraw_own_asset", http.StatusBadRequest},
	{vault.ErrWithdrawFailed, "withdraw_failed", http.StatusConflict},
	{vault.ErrInsufficientBalance, "insufficient_balance", http.StatusConflict},
	{vault.ErrAmountOverflow, "amount_overflow", http.StatusBadRequest},
	{vault.ErrFeeExceedsPrincipal, "fee_exceeds_principal", http.StatusConflict},
	{vault.ErrReentrantCall, "reentrant_call", http.StatusConflict},
	{vault.ErrInvalidParams, "invalid_params", http.StatusBadRequest},
	{vault.ErrUnknownAsset, "unknown_asset", http.StatusBadRequest},
	{vault.ErrInvariantViolated, "invariant_violated", http.StatusInternalServerError},
	{ErrRequestInProgress, "request_in_progress", http.StatusConflict},
}

// Status and stable code for an engine error. Unknown errors are internal.
func Code(err error) (status int, code string) {
	// Withdraw failures wrap the ledger error, check them before the ledger ones
	if errors.Is(err, vault.ErrWithdrawFailed) {
		return http.StatusConflict, "withdraw_failed"
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// Turns an error response back into an error matching the engine's sentinel
func (self *Error) Err() error {
	for _, c := range codes {
		if c.code == self.Code {
			return fmt.Errorf("%w: %s", c.err, self.Error)
		}
	}
	return fmt.Errorf("request failed with status %d: %s", self.Status, self.Error)
}
