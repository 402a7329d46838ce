package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/defstat/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveLayout string
)

var serveCmd = &cobra.Command{
	Use:   "serve [year]",
	Short: "Serve the interactive comparison on a local port",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sess, err := loadSession(ctx, args)
		if err != nil {
			return err
		}
		layout, err := layoutFor(serveLayout)
		if err != nil {
			return err
		}
		srv, err := server.New(sess, layout, chartOptions("svg"))
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.ServerPort
		}
		if port == 0 {
			port = 8080
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://localhost:%d\n", sess.Source.Name, port)
		return srv.ListenAndServe(ctx, fmt.Sprintf("localhost:%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveLayout, "layout", "", "chart layout: combined or split (default from config)")
	rootCmd.AddCommand(serveCmd)
}
