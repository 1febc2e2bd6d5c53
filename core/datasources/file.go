package datasources

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/subscription"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	cstream "github.com/planxnx/concurrent-stream"
	"github.com/samber/lo"
)

const (
	fileFetchConcurrency = 8
	fileFetchChunkSize   = 100
)

// Make sure to implement the Datasource interface
var _ Datasource[*types.Block] = (*FileDatasource)(nil)

// FileDatasource serves blocks decoded from per-height JSON documents in a BlockStorage.
type FileDatasource struct {
	storage BlockStorage
}

func NewFileDatasource(storage BlockStorage) *FileDatasource {
	return &FileDatasource{storage: storage}
}

func (d *FileDatasource) Name() string {
	return "file_" + d.storage.Name()
}

func (d *FileDatasource) Fetch(ctx context.Context, from, to int64) ([]*types.Block, error) {
	ch := make(chan []*types.Block)
	subscription, err := d.FetchAsync(ctx, from, to, ch)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer subscription.Unsubscribe()

	blocks := make([]*types.Block, 0)
	for {
		select {
		case b := <-ch:
			blocks = append(blocks, b...)
		case <-subscription.Done():
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "context done")
			}
			return blocks, nil
		case err := <-subscription.Err():
			if err != nil {
				return nil, errors.Wrap(err, "got error while fetch async")
			}
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "context done")
		}
	}
}

type fetchResult struct {
	blocks []*types.Block
	err    error
}

func (d *FileDatasource) FetchAsync(ctx context.Context, from, to int64, ch chan<- []*types.Block) (*subscription.ClientSubscription[[]*types.Block], error) {
	ctx = logger.WithContext(ctx,
		slogx.String("package", "datasources"),
		slogx.String("datasource", d.Name()),
	)

	from, to, skip, err := d.prepareRange(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare fetch range")
	}

	subscription := subscription.NewSubscription(ch)
	if skip {
		subscription.Close()
		return subscription.Client(), nil
	}

	ctx, cancel := context.WithCancel(ctx)

	// decoded chunks come out of the stream in submission order
	out := make(chan fetchResult)
	stream := cstream.NewStream(ctx, fileFetchConcurrency, out)

	heights := make([]int64, 0, to-from+1)
	for h := from; h <= to; h++ {
		heights = append(heights, h)
	}

	go func() {
		defer close(out)
		_ = stream.Wait()
	}()

	// Fan-out blocks to subscription channel, stop at the first failed chunk
	go func() {
		defer func() {
			cancel()
			// release stream workers still holding results
			go func() {
				for range out {
				}
			}()
		}()
		for {
			select {
			case result, ok := <-out:
				if !ok {
					subscription.Close()
					return
				}
				if result.err != nil {
					logger.ErrorContext(ctx, "Failed to read blocks", result.err)
					if err := subscription.SendError(ctx, result.err); err != nil {
						logger.WarnContext(ctx, "Failed to send datasource error to subscription client", slogx.Error(err))
					}
					return
				}
				if len(result.blocks) == 0 {
					continue
				}
				if err := subscription.Send(ctx, result.blocks); err != nil {
					if !errors.Is(err, errs.Closed) {
						logger.WarnContext(ctx, "Failed to send blocks to subscription client",
							slogx.Int64("start", result.blocks[0].Header.Height),
							slogx.Int64("end", result.blocks[len(result.blocks)-1].Header.Height),
							slogx.Error(err),
						)
					}
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer stream.Close()
		done := subscription.Done()
		for _, chunk := range lo.Chunk(heights, fileFetchChunkSize) {
			chunk := chunk
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
				stream.Go(func() fetchResult {
					blocks, err := d.readBlocks(ctx, chunk)
					return fetchResult{blocks: blocks, err: err}
				})
			}
		}
	}()

	return subscription.Client(), nil
}

func (d *FileDatasource) readBlocks(ctx context.Context, heights []int64) ([]*types.Block, error) {
	blocks := make([]*types.Block, 0, len(heights))
	for _, height := range heights {
		block, err := d.readBlock(ctx, height)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (d *FileDatasource) readBlock(ctx context.Context, height int64) (*types.Block, error) {
	data, err := d.storage.Read(ctx, height)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read block %d", height)
	}
	block, err := types.ParseBlockJSON(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse block %d", height)
	}
	if block.Header.Height != height {
		return nil, errors.Wrapf(errs.MalformedBlock, "block file %d contains height %d", height, block.Header.Height)
	}
	return block, nil
}

func (d *FileDatasource) GetBlockHeader(ctx context.Context, height int64) (types.BlockHeader, error) {
	block, err := d.readBlock(ctx, height)
	if err != nil {
		return types.BlockHeader{}, errors.WithStack(err)
	}
	return block.Header, nil
}

func (d *FileDatasource) prepareRange(ctx context.Context, fromHeight, toHeight int64) (start, end int64, skip bool, err error) {
	start = fromHeight
	end = toHeight

	latestHeight, err := d.storage.LatestHeight(ctx)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return -1, -1, true, nil
		}
		return -1, -1, false, errors.Wrap(err, "failed to get latest stored height")
	}

	// set start to genesis block height
	if start < 0 {
		start = 0
	}

	// set end to latest stored height if
	// - end is -1
	// - end is greater than latest stored height
	if end < 0 || end > latestHeight {
		end = latestHeight
	}

	// if start is greater than end, skip this round
	if start > end {
		return -1, -1, true, nil
	}

	return start, end, false, nil
}
