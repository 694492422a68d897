package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"solana-memebot-sim/internal/verification"
)

// errDiverged makes the command exit non-zero without a usage dump.
var errDiverged = errors.New("replay diverged from the stored run")

func newVerifyCmd(a *app) *cobra.Command {
	var (
		tradeID string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "verify <run-id>",
		Short: "Replay a stored run and compare its trades",
		Long: `Re-run the stored configuration of a run and compare every replayed trade
with the stored one, field by field, plus the run digest.

Examples:
  memesim verify --storage sqlite 01J...
  memesim verify --storage postgres --trade 3f2a... 01J...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID := args[0]

			a.store.resolve(cmd)
			b, err := a.store.openBackend(ctx, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
				TradeStore: b.stores.Trades,
				RunStore:   b.stores.Runs,
				EventStore: b.stores.Observations,
				Logger:     a.log,
			})
			w := cmd.OutOrStdout()

			if tradeID != "" {
				res, err := v.VerifyTrade(ctx, runID, tradeID)
				if err != nil {
					return err
				}
				if asJSON {
					err = printJSON(w, res)
				} else {
					err = printResult(w, *res)
				}
				if err == nil && !res.Match {
					err = errDiverged
				}
				return err
			}

			report, err := v.VerifyRun(ctx, runID)
			if err != nil {
				return err
			}
			if asJSON {
				err = printJSON(w, report)
			} else {
				err = printVerification(w, report)
			}
			if err == nil && !report.OK() {
				err = errDiverged
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&tradeID, "trade", "", "verify a single trade id")
	fl.BoolVar(&asJSON, "json", false, "print the verification result as JSON")
	return cmd
}

func printVerification(w io.Writer, r *verification.VerificationReport) error {
	status := "OK"
	if !r.OK() {
		status = "DIVERGED"
	}
	if _, err := fmt.Fprintf(w, "Run %s: %s\n  Trades: %d stored, %d matched, %d divergent, %d missing, %d extra\n  Digest: stored %s, replayed %s\n",
		r.RunID, status,
		r.TotalTrades, r.MatchedTrades, r.DivergentTrades, r.MissingTrades, r.ExtraTrades,
		r.StoredDigest, r.ReplayedDigest); err != nil {
		return err
	}
	for _, res := range r.Results {
		if res.Match {
			continue
		}
		if err := printResult(w, res); err != nil {
			return err
		}
	}
	return nil
}

func printResult(w io.Writer, res verification.VerificationResult) error {
	if res.Match {
		_, err := fmt.Fprintf(w, "  %s: match (pnl %s)\n", res.TradeID, res.StoredPnL)
		return err
	}
	if _, err := fmt.Fprintf(w, "  %s: diverged\n", res.TradeID); err != nil {
		return err
	}
	for _, d := range res.Divergences {
		if _, err := fmt.Fprintf(w, "    %s: stored %v, replayed %v\n", d.Field, d.Expected, d.Actual); err != nil {
			return err
		}
	}
	return nil
}
