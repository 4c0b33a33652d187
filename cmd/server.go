package cmd

import (
	"github.com/minimarket/order-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the order intake HTTP server",
	Long: `Starts the order intake service. It exposes the orders HTTP API,
connects to the orders database and the external pricing provider, and
optionally publishes order-placed events to NATS JetStream.`,
	Run: bootstrap.StartServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
