package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Maverick0351a/odin-gateway-cloud-lite/internal/config"
	"github.com/Maverick0351a/odin-gateway-cloud-lite/internal/receipts"
	"github.com/Maverick0351a/odin-gateway-cloud-lite/internal/storage/jsonl"
	"github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/canonical"
	logpkg "github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/log"
)

func main() {
	// Respect ODIN_LOG_LEVEL / ODIN_LOG_FORMAT for CLI output
	level := os.Getenv("ODIN_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	var formatter logpkg.Formatter = &logpkg.TextFormatter{}
	if os.Getenv("ODIN_LOG_FORMAT") == "json" {
		formatter = &logpkg.JSONFormatter{}
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(formatter),
		logpkg.WithOutput(os.Stderr),
	)

	rootCmd := &cobra.Command{
		Use:   "odin",
		Short: "Odin receipt log CLI",
		Long:  "Odin maintains a tamper-evident, hash-linked receipt log. This CLI appends receipts, reads trace chains, and verifies log integrity.",
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (JSON or YAML); env vars override")

	// append
	appendCmd := &cobra.Command{
		Use:   "append",
		Short: "Append a receipt to the log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			traceID, _ := cmd.Flags().GetString("trace-id")
			hop, _ := cmd.Flags().GetInt("hop")
			ts, _ := cmd.Flags().GetString("ts")
			payload, _ := cmd.Flags().GetString("payload")

			rec := receipts.Receipt{
				receipts.FieldTraceID:   traceID,
				receipts.FieldHop:       hop,
				receipts.FieldTimestamp: ts,
			}
			if payload != "" {
				dec := json.NewDecoder(strings.NewReader(payload))
				dec.UseNumber()
				var extra map[string]any
				if err := dec.Decode(&extra); err != nil {
					return fmt.Errorf("invalid --payload: %w", err)
				}
				for k, v := range extra {
					rec[k] = v
				}
			}

			ctx, cancel := signalContext()
			defer cancel()
			store, err := receipts.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := store.Add(ctx, rec)
			if err != nil {
				return fmt.Errorf("append: %w", err)
			}
			return printJSON(cmd, stored)
		},
	}
	appendCmd.Flags().String("trace-id", "trace-"+uuid.NewString(), "Trace identifier (random per invocation if not set)")
	appendCmd.Flags().Int("hop", 0, "Hop number within the trace")
	appendCmd.Flags().String("ts", receipts.NowISO(), "Receipt timestamp (ISO 8601)")
	appendCmd.Flags().String("payload", "", "Extra receipt fields as a JSON object")
	rootCmd.AddCommand(appendCmd)

	// chain
	chainCmd := &cobra.Command{
		Use:   "chain <trace-id>",
		Short: "Print the receipt chain for a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			store, err := receipts.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			chain, err := store.Chain(ctx, args[0])
			if err != nil {
				return fmt.Errorf("chain: %w", err)
			}
			if chain == nil {
				chain = []receipts.Receipt{}
			}
			if export, _ := cmd.Flags().GetString("export"); export != "" {
				return writeBundle(cmd, export, args[0], chain)
			}
			return printJSON(cmd, chain)
		},
	}
	chainCmd.Flags().String("export", "", "Write a portable chain bundle to this file and print its content address")
	rootCmd.AddCommand(chainCmd)

	// verify
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify hash linkage of the local receipt log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := receipts.NewFileStore(receipts.FileStoreOptions{
				Path:   cfg.ReceiptsPath,
				Fsync:  jsonl.FsyncModeNever,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := signalContext()
			defer cancel()
			records, skipped, err := store.Records(ctx)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			rep := receipts.VerifyChain(records)
			rep.Skipped = skipped

			out := cmd.OutOrStdout()
			for _, b := range rep.Breaks {
				color.New(color.FgRed).Fprintf(out, "BREAK #%d trace=%s: %s\n", b.Index, b.TraceID, b.Reason)
			}
			if skipped > 0 {
				color.New(color.FgYellow).Fprintf(out, "skipped %d unparsable line(s)\n", skipped)
			}
			if !rep.OK() {
				color.New(color.FgRed).Fprintf(out, "FAIL: %d receipt(s), %d break(s)\n", rep.Records, len(rep.Breaks))
				return fmt.Errorf("chain verification failed")
			}
			color.New(color.FgGreen).Fprintf(out, "OK: %d receipt(s), chain intact\n", rep.Records)
			return nil
		},
	}
	rootCmd.AddCommand(verifyCmd)

	// config show
	configCmd := &cobra.Command{Use: "config", Short: "Configuration commands"}
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration and selected store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			store, err := receipts.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			return printJSON(cmd, map[string]any{
				"config": cfg,
				"store":  store.Path(),
			})
		},
	}
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration: defaults, then --config file, then env.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	config.FromEnv(&cfg)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

// writeBundle exports a trace chain as a self-describing JSON document and
// prints the bundle's content address so recipients can check what they got.
func writeBundle(cmd *cobra.Command, path, traceID string, chain []receipts.Receipt) error {
	plain := make([]any, 0, len(chain))
	for _, r := range chain {
		plain = append(plain, map[string]any(r))
	}
	bundle := map[string]any{
		"trace_id":    traceID,
		"receipts":    plain,
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	}
	b, err := canonical.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d receipt(s))\n", path, len(chain))
	fmt.Fprintln(cmd.OutOrStdout(), canonical.ContentAddress(b))
	return nil
}
