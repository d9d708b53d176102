package main

import (
	"context"
	"os"
	"time"

	"mosaic/internal/server"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	websocketAddr   string
	disableIndex    bool
	debugProtocol   bool
	metricsInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server over stdio or a websocket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		opts := server.Options{
			Version:      Version,
			SettingsFile: settingsFile,
			DisableIndex: disableIndex,
			Debug:        debugProtocol,
		}

		if metricsInterval > 0 {
			provider, err := newMeterProvider(metricsInterval)
			if err != nil {
				return err
			}
			defer provider.Shutdown(ctx)
			opts.MeterProvider = provider
		}

		s, err := server.New(ctx, opts)
		if err != nil {
			return err
		}
		defer s.Close()

		if websocketAddr != "" {
			return s.RunWebSocket(websocketAddr)
		}
		return s.RunStdio()
	},
}

func init() {
	serveCmd.Flags().StringVar(&websocketAddr, "websocket", "", "listen for websocket clients on this address instead of using stdio")
	serveCmd.Flags().BoolVar(&disableIndex, "no-index", false, "do not index the workspace for symbol search")
	serveCmd.Flags().BoolVar(&debugProtocol, "debug", false, "log protocol messages")
	serveCmd.Flags().DurationVar(&metricsInterval, "metrics", 0, "export cache metrics to stderr at this interval")
}

// newMeterProvider exports metrics to stderr; stdout carries the protocol.
func newMeterProvider(interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), nil
}
