package ctl

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func defaultServer() string {
	if v := os.Getenv("SHELFWATCH_SERVER"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}

// BuildRootCmd constructs the shelfwatchctl command tree.
func BuildRootCmd() *cobra.Command {
	cfg := &Config{Server: defaultServer(), Timeout: 30 * time.Second}

	root := &cobra.Command{
		Use:           "shelfwatchctl",
		Short:         "Client for a running shelfwatchd instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Server, "server", cfg.Server, "Base URL of the shelfwatchd server (defaults SHELFWATCH_SERVER)")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP client timeout")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Query /health and print the payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, status, err := cfg.get("/health")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			if status != http.StatusOK {
				return fmt.Errorf("server not ready (HTTP %d)", status)
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Query /status and print the payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, status, err := cfg.get("/status")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			if status != http.StatusOK {
				return fmt.Errorf("unexpected HTTP %d", status)
			}
			return nil
		},
	}

	var confidence float64
	predictCmd := &cobra.Command{
		Use:     "predict <image>",
		Short:   "Upload an image and print the detection result",
		Example: "  shelfwatchctl predict shelf.jpg\n  shelfwatchctl predict shelf.jpg --confidence 0.4",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, status, err := cfg.predict(args[0], confidence)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			if status != http.StatusOK {
				return fmt.Errorf("predict failed (HTTP %d)", status)
			}
			return nil
		},
	}
	predictCmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence threshold override (0.01-1.0)")

	var (
		benchN          int
		benchC          int
		benchConfidence float64
	)
	benchCmd := &cobra.Command{
		Use:     "bench <image>",
		Short:   "Fire repeated predict requests and report latency percentiles",
		Example: "  shelfwatchctl bench shelf.jpg -n 200 -c 8",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cfg, args[0], benchN, benchC, benchConfidence)
		},
	}
	benchCmd.Flags().IntVarP(&benchN, "requests", "n", 100, "Total number of requests")
	benchCmd.Flags().IntVarP(&benchC, "concurrency", "c", 4, "Concurrent senders")
	benchCmd.Flags().Float64Var(&benchConfidence, "confidence", 0, "Confidence threshold override")

	root.AddCommand(healthCmd, statusCmd, predictCmd, benchCmd)
	return root
}
