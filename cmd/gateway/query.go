package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clmmGateway/internal/clmm"
	"clmmGateway/internal/network"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the chain status of a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNetwork(cmd, func(ctx context.Context, n *network.Network) error {
				status, err := n.Status(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
	cmd.Flags().String("network", "", "network name (defaults to default-network)")
	return cmd
}

func newPollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll <digest>",
		Short: "Print the outcome of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(cmd, func(ctx context.Context, n *network.Network) error {
				res, err := n.Poll(ctx, args[0])
				if err != nil {
					return err
				}
				out := struct {
					CurrentBlock uint64           `json:"currentBlock"`
					Signature    string           `json:"signature"`
					TxBlock      *uint64          `json:"txBlock"`
					TxStatus     int              `json:"txStatus"`
					Fee          *decimal.Decimal `json:"fee"`
					TxData       json.RawMessage  `json:"txData"`
					Error        string           `json:"error,omitempty"`
				}{
					CurrentBlock: res.CurrentBlock,
					Signature:    res.Signature,
					TxBlock:      res.TxBlock,
					TxStatus:     int(res.TxStatus),
					Fee:          res.Fee,
					TxData:       res.TxData,
					Error:        res.Error,
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().String("network", "", "network name (defaults to default-network)")
	return cmd
}

func newQuoteSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote-swap",
		Short: "Simulate a swap against a Bluefin pool",
		Args:  cobra.NoArgs,
		RunE:  runQuoteSwap,
	}
	cmd.Flags().String("network", "", "network name (defaults to default-network)")
	cmd.Flags().String("pool", "", "pool object id")
	cmd.Flags().String("base", "", "base token symbol or coin type")
	cmd.Flags().String("quote", "", "quote token symbol or coin type")
	cmd.Flags().String("side", "SELL", "BUY or SELL, relative to the base token")
	cmd.Flags().String("amount", "", "amount in human units")
	cmd.Flags().String("slippage", "0.5", "slippage tolerance in percent")
	return cmd
}

func runQuoteSwap(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	poolID, _ := flags.GetString("pool")
	base, _ := flags.GetString("base")
	quote, _ := flags.GetString("quote")
	sideText, _ := flags.GetString("side")
	amountText, _ := flags.GetString("amount")
	slippageText, _ := flags.GetString("slippage")

	if poolID == "" || base == "" || quote == "" {
		return fmt.Errorf("--pool, --base and --quote are required")
	}
	side, err := clmm.ParseSide(sideText)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", amountText, err)
	}
	slippage, err := decimal.NewFromString(slippageText)
	if err != nil {
		return fmt.Errorf("invalid --slippage %q: %w", slippageText, err)
	}

	return withNetwork(cmd, func(ctx context.Context, n *network.Network) error {
		connector := n.Connector()
		if connector == nil {
			return fmt.Errorf("network %s has no spot-rpc configured", n.Name())
		}
		out, err := connector.QuoteSwap(ctx, clmm.SwapRequest{
			PoolID:      poolID,
			BaseToken:   base,
			QuoteToken:  quote,
			Side:        side,
			Amount:      amount,
			SlippagePct: slippage,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	})
}

// withNetwork builds a single network outside of the server. Nothing is
// cached or journaled.
func withNetwork(cmd *cobra.Command, fn func(ctx context.Context, n *network.Network) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	name, _ := cmd.Flags().GetString("network")
	if name == "" {
		name = cfg.DefaultNetwork
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := newBuilder(cfg, nil, nil, nil, logger).Build(ctx, name)
	if err != nil {
		return err
	}
	defer n.Close()

	logger.Debug("query network", zap.String("network", name), zap.String("command", cmd.Name()))
	return fn(ctx, n)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
