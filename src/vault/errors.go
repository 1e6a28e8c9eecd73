package vault

import "errors"

var (
	ErrZeroAmount             = errors.New("amount is zero")
	ErrAlreadyStaked          = errors.New("account already has a staked position")
	ErrNoStakedBalance        = errors.New("account has no staked position")
	ErrNoPendingRedemption    = errors.New("account has no pending redemption")
	ErrInvalidReferrer        = errors.New("invalid referrer")
	ErrAlreadyHasReferrer     = errors.New("account already has a referrer")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidAddress         = errors.New("invalid address")
	ErrBelowMinimumRedemption = errors.New("redemption below minimum amount")
	ErrCannotWithdrawOwnAsset = errors.New("cannot withdraw protocol asset")
	ErrWithdrawFailed         = errors.New("withdraw failed")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAmountOverflow      = errors.New("amount overflow")
	ErrFeeExceedsPrincipal = errors.New("fee exceeds principal")
	ErrReentrantCall       = errors.New("reentrant call")
	ErrInvalidParams       = errors.New("invalid parameters")
	ErrUnknownAsset        = errors.New("unknown asset")
	ErrEventOutOfOrder     = errors.New("event out of order")
	ErrInvariantViolated   = errors.New("invariant violated")
)
