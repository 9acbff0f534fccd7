package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/insightmap/insightmap/internal/insightd"
)

var (
	serveAddr string
	serveRPM  float64
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bundled insight service",
	Long: `Serve the generation and matching endpoints locally:

  POST /api/insights/generate
  POST /api/insights/match

Without an AI provider configured the keyword method is used. Requests above
the configured rate are answered with the standard 429 rate-limit body.

Example:
  insightmap serve
  insightmap serve --addr :9000 --rpm 30
  INSIGHTMAP_LLM_PROVIDER=openai OPENAI_API_KEY=sk-... insightmap serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().Float64Var(&serveRPM, "rpm", 0, "requests per minute before throttling (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Insightd.Addr
	}
	rpm := serveRPM
	if rpm == 0 {
		rpm = cfg.Insightd.RequestsPerMinute
	}

	generator, err := insightd.NewGenerator(cfg.LLM)
	if err != nil {
		return fmt.Errorf("initialize generator: %w", err)
	}

	server := insightd.NewServer(generator, rpm, cfg.Insightd.Burst)
	fmt.Printf("insightd listening on %s (method: %s, %.0f req/min)\n", addr, generator.Name(), rpm)
	return http.ListenAndServe(addr, server.Handler())
}
