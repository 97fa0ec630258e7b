package connector

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/rickgao/explorer-data/internal/api"
	"github.com/rickgao/explorer-data/internal/model"
)

// ChartConfig configures the blockchain.info charts connector.
type ChartConfig struct {
	URL            string // base, e.g. https://api.blockchain.info/charts
	ChartName      string
	Timespan       string
	RollingAverage string
	Timeout        time.Duration
}

// Chart fetches one blockchain.info chart as a list of points.
type Chart struct {
	client *api.Client
	cfg    ChartConfig
	logger *slog.Logger
}

// NewChart creates a chart connector.
func NewChart(cfg ChartConfig, logger *slog.Logger, opts ...api.ClientOption) *Chart {
	logger = orDefault(logger)
	opts = append([]api.ClientOption{api.WithLogger(logger)}, opts...)
	return &Chart{
		client: api.NewClient(cfg.URL, "", opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Chart) Source() model.Source { return model.SourceChart }

type chartEnvelope struct {
	Status      string `json:"status"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Period      string `json:"period"`
	Description string `json:"description"`
	Values      []struct {
		X int64   `json:"x"`
		Y float64 `json:"y"`
	} `json:"values"`
}

// Fetch returns every point of the configured chart with its metadata.
func (c *Chart) Fetch(ctx context.Context) ([]model.ChartPoint, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	query := url.Values{}
	query.Set("timespan", c.cfg.Timespan)
	query.Set("rollingAverage", c.cfg.RollingAverage)
	query.Set("format", "json")

	body, err := c.client.Get(ctx, "/"+url.PathEscape(c.cfg.ChartName), query)
	if err != nil {
		return nil, fetchErr(model.SourceChart, err)
	}

	var env chartEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, decodeErr(model.SourceChart, "unmarshal chart: %w", err)
	}
	if env.Status != "ok" {
		return nil, fetchErr(model.SourceChart, &upstreamStatusError{status: env.Status})
	}
	if len(env.Values) == 0 {
		return nil, emptyErr(model.SourceChart)
	}

	points := make([]model.ChartPoint, len(env.Values))
	for i, v := range env.Values {
		points[i] = model.ChartPoint{
			ChartName:   env.Name,
			Unit:        env.Unit,
			Period:      env.Period,
			Description: env.Description,
			ValueX:      v.X,
			ValueY:      v.Y,
		}
	}

	c.logger.Debug("chart: decoded", "chart", env.Name, "points", len(points))
	return points, nil
}

type upstreamStatusError struct {
	status string
}

func (e *upstreamStatusError) Error() string {
	if e.status == "" {
		return "upstream status missing"
	}
	return "upstream status " + e.status
}
