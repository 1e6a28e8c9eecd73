package cmd

import (
	"github.com/warp-contracts/vault/src/service"
	"github.com/warp-contracts/vault/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vault with its REST API, event store and publisher",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := service.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished serve command")
		return
	},
}
