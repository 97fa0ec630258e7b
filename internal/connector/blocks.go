package connector

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rickgao/explorer-data/internal/api"
	"github.com/rickgao/explorer-data/internal/model"
)

const blocksQuery = `query($network: BitcoinNetwork!, $limit: Int!) {
  bitcoin(network: $network) {
    blocks(options: {limit: $limit, desc: "height"}) {
      height
      blockHash
      blockSize
      blockWeight
      blockVersion
      blockStrippedSize
      difficulty
      transactionCount
    }
  }
}`

// BlocksConfig configures the bitquery connector.
type BlocksConfig struct {
	URL     string
	APIKey  string
	Network string
	Limit   int
	Timeout time.Duration
}

// Blocks fetches the most recent blocks from the bitquery GraphQL API.
type Blocks struct {
	client *api.Client
	cfg    BlocksConfig
	logger *slog.Logger
}

// NewBlocks creates a blocks connector. opts are passed to the underlying api.Client.
func NewBlocks(cfg BlocksConfig, logger *slog.Logger, opts ...api.ClientOption) *Blocks {
	logger = orDefault(logger)
	opts = append([]api.ClientOption{
		api.WithAPIKeyHeader("X-API-KEY"),
		api.WithLogger(logger),
	}, opts...)
	return &Blocks{
		client: api.NewClient(cfg.URL, cfg.APIKey, opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (b *Blocks) Source() model.Source { return model.SourceBlocks }

// wireBlock mirrors the GraphQL selection. Height is a pointer so a missing
// height is detected instead of silently becoming block 0.
type wireBlock struct {
	Height            *int64   `json:"height"`
	BlockHash         *string  `json:"blockHash"`
	BlockSize         *int64   `json:"blockSize"`
	BlockWeight       *int64   `json:"blockWeight"`
	BlockVersion      *int64   `json:"blockVersion"`
	BlockStrippedSize *int64   `json:"blockStrippedSize"`
	Difficulty        *float64 `json:"difficulty"`
	TransactionCount  *int64   `json:"transactionCount"`
}

type blocksData struct {
	Bitcoin *struct {
		Blocks []wireBlock `json:"blocks"`
	} `json:"bitcoin"`
}

// Fetch returns the latest blocks, de-duplicated by height.
func (b *Blocks) Fetch(ctx context.Context) ([]model.Block, error) {
	ctx, cancel := withTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	data, err := b.client.GraphQL(ctx, "", api.GraphQLRequest{
		Query: blocksQuery,
		Variables: map[string]any{
			"network": b.cfg.Network,
			"limit":   b.cfg.Limit,
		},
	})
	if err != nil {
		return nil, classify(model.SourceBlocks, err)
	}
	if data == nil {
		return nil, decodeErr(model.SourceBlocks, "graphql response has no data")
	}

	var payload blocksData
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, decodeErr(model.SourceBlocks, "unmarshal blocks: %w", err)
	}
	if payload.Bitcoin == nil {
		return nil, decodeErr(model.SourceBlocks, "missing bitcoin field")
	}
	if len(payload.Bitcoin.Blocks) == 0 {
		return nil, emptyErr(model.SourceBlocks)
	}

	seen := make(map[int64]struct{}, len(payload.Bitcoin.Blocks))
	blocks := make([]model.Block, 0, len(payload.Bitcoin.Blocks))
	for i, wb := range payload.Bitcoin.Blocks {
		if wb.Height == nil {
			return nil, decodeErr(model.SourceBlocks, "block %d has no height", i)
		}
		if _, dup := seen[*wb.Height]; dup {
			b.logger.Debug("blocks: duplicate height dropped", "height", *wb.Height)
			continue
		}
		seen[*wb.Height] = struct{}{}
		blocks = append(blocks, model.Block{
			Height:            *wb.Height,
			BlockHash:         wb.BlockHash,
			BlockSize:         wb.BlockSize,
			BlockWeight:       wb.BlockWeight,
			BlockVersion:      wb.BlockVersion,
			BlockStrippedSize: wb.BlockStrippedSize,
			Difficulty:        wb.Difficulty,
			TransactionCount:  wb.TransactionCount,
		})
	}

	return blocks, nil
}
