package cmd

import (
	"encoding/json"

	"github.com/warp-contracts/vault/src/utils/client"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/spf13/cobra"
)

var (
	clientCaller   string
	clientAmount   string
	clientReferrer string
	clientAccount  string
)

func init() {
	clientCmd.PersistentFlags().StringVar(&clientCaller, "caller", "", "acting account, ignored when the token names one")

	for _, c := range []*cobra.Command{clientDepositCmd, clientStakeCmd, clientRequestRedemptionCmd} {
		c.Flags().StringVar(&clientAmount, "amount", "", "amount, e.g. 1000.5")
	}
	clientDepositCmd.Flags().StringVar(&clientReferrer, "referrer", "", "referrer of the depositor")
	clientAssignReferrerCmd.Flags().StringVar(&clientReferrer, "referrer", "", "referrer to assign")

	for _, c := range []*cobra.Command{clientFulfillCmd, clientAccountCmd} {
		c.Flags().StringVar(&clientAccount, "account", "", "account address")
	}

	clientCmd.AddCommand(
		clientDepositCmd,
		clientStakeCmd,
		clientUnstakeCmd,
		clientAssignReferrerCmd,
		clientRequestRedemptionCmd,
		clientFulfillCmd,
		clientAccountCmd,
		clientStateCmd,
	)
	RootCmd.AddCommand(clientCmd)
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Call a running vault gateway",
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalAccount(s string) (vault.Account, error) {
	if s == "" {
		return vault.NoAccount, nil
	}
	return vault.ParseAccount(s)
}

// Runs f with a client and the parsed caller, prints what f returns
func withClient(f func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		caller, err := optionalAccount(clientCaller)
		if err != nil {
			return err
		}

		out, err := f(cmd, client.NewClient(conf), caller)
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	}
}

var clientDepositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Exchange the settlement asset for the protocol asset",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		amount, err := parseAmount(clientAmount)
		if err != nil {
			return nil, err
		}
		referrer, err := optionalAccount(clientReferrer)
		if err != nil {
			return nil, err
		}
		return c.Deposit(applicationCtx, caller, amount, referrer)
	}),
}

var clientStakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Open a staked position",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		amount, err := parseAmount(clientAmount)
		if err != nil {
			return nil, err
		}
		return c.Stake(applicationCtx, caller, amount)
	}),
}

var clientUnstakeCmd = &cobra.Command{
	Use:   "unstake",
	Short: "Close the staked position",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		return c.Unstake(applicationCtx, caller)
	}),
}

var clientAssignReferrerCmd = &cobra.Command{
	Use:   "assign-referrer",
	Short: "Set the caller's referrer",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		referrer, err := vault.ParseAccount(clientReferrer)
		if err != nil {
			return nil, err
		}
		return c.AssignReferrer(applicationCtx, caller, referrer)
	}),
}

var clientRequestRedemptionCmd = &cobra.Command{
	Use:   "request-redemption",
	Short: "Queue protocol asset for redemption",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		amount, err := parseAmount(clientAmount)
		if err != nil {
			return nil, err
		}
		return c.RequestRedemption(applicationCtx, caller, amount)
	}),
}

var clientFulfillCmd = &cobra.Command{
	Use:   "fulfill",
	Short: "Settle an investor's pending redemption",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		investor, err := vault.ParseAccount(clientAccount)
		if err != nil {
			return nil, err
		}
		return c.FulfillRedemption(applicationCtx, caller, investor)
	}),
}

var clientAccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show an account",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		account, err := vault.ParseAccount(clientAccount)
		if err != nil {
			return nil, err
		}
		return c.Account(applicationCtx, account)
	}),
}

var clientStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show totals and parameters",
	RunE: withClient(func(cmd *cobra.Command, c *client.Client, caller vault.Account) (any, error) {
		return c.State(applicationCtx)
	}),
}
