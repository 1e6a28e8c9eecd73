package request

// Caller is only read when the gateway runs without authentication,
// otherwise it comes from the bearer token.
type Auth struct {
	Caller string `json:"caller,omitempty"`
}

type Deposit struct {
	Auth
	Amount   uint64 `json:"amount"`
	Referrer string `json:"referrer,omitempty"`
}

type Stake struct {
	Auth
	Amount uint64 `json:"amount"`
}

type Unstake struct {
	Auth
}

type AssignReferrer struct {
	Auth
	Referrer string `json:"referrer"`
}

type RequestRedemption struct {
	Auth
	Amount uint64 `json:"amount"`
}

type FulfillRedemption struct {
	Auth
	Investor string `json:"investor"`
}

// Mints test balances, development mode only
type Credit struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  uint64 `json:"amount"`
}

func (self Auth) GetAuth() Auth {
	return self
}
