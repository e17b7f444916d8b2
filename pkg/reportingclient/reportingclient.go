package reportingclient

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/pkg/httpclient"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
)

type Config struct {
	Disabled      bool   `mapstructure:"disabled"`
	BaseURL       string `mapstructure:"base_url"`
	Name          string `mapstructure:"name"`
	WebsiteURL    string `mapstructure:"website_url"`
	IndexerAPIURL string        `mapstructure:"indexer_api_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ReportingClient submits indexing progress to a reporting service.
type ReportingClient struct {
	httpClient *httpclient.Client
	config     Config
}

func New(config Config) (*ReportingClient, error) {
	if config.BaseURL == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "reporting.base_url config is required if reporting is enabled")
	}
	if config.Name == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "reporting.name config is required if reporting is enabled")
	}
	httpClient, err := httpclient.New(config.BaseURL, httpclient.Config{Timeout: config.Timeout})
	if err != nil {
		return nil, errors.Wrap(err, "can't create http client")
	}
	return &ReportingClient{
		httpClient: httpClient,
		config:     config,
	}, nil
}

type SubmitBatchReportPayload struct {
	Type          string         `json:"type"`
	ClientVersion string         `json:"clientVersion"`
	DBVersion     int            `json:"dbVersion"`
	Network       common.Network `json:"network"`
	FromBlock     uint64         `json:"fromBlock"`
	ToBlock       uint64         `json:"toBlock"`
	Transfers     uint64         `json:"transfers"`
}

func (r *ReportingClient) SubmitBatchReport(ctx context.Context, payload SubmitBatchReportPayload) error {
	resp, err := r.httpClient.PostJSON(ctx, "/v1/report/batch", payload)
	if err != nil {
		return errors.Wrap(err, "can't send batch report")
	}
	if resp.IsError() {
		logger.WarnContext(ctx, "Reporting service rejected batch report",
			slogx.Int("status_code", resp.StatusCode),
			slogx.BlockRange(payload.FromBlock, payload.ToBlock),
			slogx.String("response_body", string(resp.Body)),
		)
		return nil
	}
	logger.DebugContext(ctx, "Submitted batch report",
		slogx.BlockRange(payload.FromBlock, payload.ToBlock),
		slogx.Uint64("transfers", payload.Transfers),
	)
	return nil
}

type SubmitNodeReportPayload struct {
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Network       common.Network `json:"network"`
	WebsiteURL    string         `json:"websiteURL,omitempty"`
	IndexerAPIURL string         `json:"indexerAPIURL,omitempty"`
}

func (r *ReportingClient) SubmitNodeReport(ctx context.Context, module string, network common.Network) error {
	payload := SubmitNodeReportPayload{
		Name:          r.config.Name,
		Type:          module,
		Network:       network,
		WebsiteURL:    r.config.WebsiteURL,
		IndexerAPIURL: r.config.IndexerAPIURL,
	}
	resp, err := r.httpClient.PostJSON(ctx, "/v1/report/node", payload)
	if err != nil {
		return errors.Wrap(err, "can't send node report")
	}
	if resp.IsError() {
		logger.WarnContext(ctx, "Reporting service rejected node report",
			slogx.Int("status_code", resp.StatusCode),
			slogx.String("response_body", string(resp.Body)),
		)
		return nil
	}
	logger.InfoContext(ctx, "Submitted node report",
		slogx.String("name", payload.Name),
		slogx.String("module", payload.Type),
		slogx.Stringer("network", payload.Network),
	)
	return nil
}
