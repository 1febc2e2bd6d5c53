package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/internal/config"
	"github.com/gaze-network/brc20-indexer/modules/brc20"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

type replayCmdOptions struct {
	From int64
	To   int64
}

func NewReplayCommand() *cobra.Command {
	opts := &replayCmdOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Process a block range twice against in-memory state and compare the cumulative event hashes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return replayHandler(opts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&opts.From, "from", 0, "First block height of the range")
	flags.Int64Var(&opts.To, "to", 0, "Last block height of the range")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func replayHandler(opts *replayCmdOptions, cmd *cobra.Command) error {
	conf := config.Load()
	ctx := logger.WithContext(cmd.Context(),
		slogx.String("command", "replay"),
		slogx.Int64("from", opts.From),
		slogx.Int64("to", opts.To),
	)

	datasource, err := brc20.NewDatasource(ctx, conf.Modules.BRC20.Datasource)
	if err != nil {
		return errors.WithStack(err)
	}

	hashes := make([]string, 0, 2)
	for run := 1; run <= 2; run++ {
		hash, err := brc20.Replay(ctx, datasource, conf.Network, opts.From, opts.To)
		if err != nil {
			return errors.Wrapf(err, "replay %d failed", run)
		}
		logger.InfoContext(ctx, "Replayed block range", slogx.Int("run", run), slogx.Stringer("cumulative_event_hash", hash))
		hashes = append(hashes, hash.String())
	}

	if hashes[0] != hashes[1] {
		return errors.Wrapf(errs.SomethingWentWrong, "non-deterministic replay: %s != %s", hashes[0], hashes[1])
	}
	fmt.Fprintln(cmd.OutOrStdout(), hashes[0])
	return nil
}
