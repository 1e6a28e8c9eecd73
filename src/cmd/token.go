package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp-contracts/vault/src/gateway"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "account the token acts for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "validity, defaults to Gateway.AuthTokenTTL")
	RootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token signed with the gateway secret",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if conf.Gateway.AuthSecret == "" {
			return errors.New("Gateway.AuthSecret isn't set")
		}

		account, err := vault.ParseAccount(tokenSubject)
		if err != nil {
			return
		}

		ttl := tokenTTL
		if ttl == 0 {
			ttl = conf.Gateway.AuthTokenTTL
		}

		token, err := gateway.IssueToken(conf.Gateway.AuthSecret, account, ttl)
		if err != nil {
			return
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return
	},
}
