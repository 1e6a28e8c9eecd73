package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/warp-contracts/vault/src/vault"

	"github.com/raulk/clock"
	"github.com/spf13/cobra"
)

var (
	quotePrincipal string
	quoteDuration  time.Duration
	quoteVIP       bool
)

func init() {
	quoteCmd.Flags().StringVar(&quotePrincipal, "principal", "1000", "staked amount")
	quoteCmd.Flags().DurationVar(&quoteDuration, "duration", 365*24*time.Hour, "time staked")
	quoteCmd.Flags().BoolVar(&quoteVIP, "vip", false, "account is a VIP")
	RootCmd.AddCommand(quoteCmd)
}

// Stakes in a throwaway engine and quotes the unstake after the given time
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute reward and fees of a stake with the configured parameters",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		principal, err := parseAmount(quotePrincipal)
		if err != nil {
			return
		}

		params, err := vault.NewParams(&conf.Vault)
		if err != nil {
			return
		}

		account := vault.Account{0x01}
		state := vault.NewState(params)
		if quoteVIP {
			state = state.WithVIPs(account)
		}

		mock := clock.NewMock()
		mock.Set(time.Now())
		engine := vault.NewEngine(state).WithClock(mock)
		defer engine.Hub().Close()

		ctx := context.Background()
		ledger, err := engine.Ledger(params.ProtocolAsset)
		if err != nil {
			return
		}

		err = ledger.Mint(ctx, account, principal)
		if err != nil {
			return
		}

		err = engine.Stake(ctx, account, principal)
		if err != nil {
			return
		}

		mock.Add(quoteDuration)

		quote, err := engine.QuoteUnstake(account)
		if err != nil {
			return
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "principal:  %s\n", formatAmount(quote.Principal))
		fmt.Fprintf(out, "staked for: %s (%d s)\n", quoteDuration, quote.TimeStaked)
		fmt.Fprintf(out, "reward:     %s\n", formatAmount(quote.Reward))
		fmt.Fprintf(out, "early fee:  %s\n", formatAmount(quote.EarlyFee))
		fmt.Fprintf(out, "small fee:  %s\n", formatAmount(quote.SmallFee))
		fmt.Fprintf(out, "total fee:  %s\n", formatAmount(quote.TotalFee))
		fmt.Fprintf(out, "payout:     %s\n", formatAmount(quote.Payout))
		fmt.Fprintf(out, "received:   %s\n", formatAmount(quote.Payout+quote.Reward))
		return
	},
}
