package httpclient

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/valyala/fasthttp"
)

// DefaultTimeout bounds a request when the context has no deadline.
const DefaultTimeout = 10 * time.Second

type Config struct {
	// Enable debug mode
	Debug bool

	// Timeout per request. Default is [DefaultTimeout].
	Timeout time.Duration

	// Default headers
	Headers map[string]string
}

// Client is a small JSON client over fasthttp, used for outbound reports.
type Client struct {
	baseURL *url.URL
	Config
}

func New(baseURL string, config ...Config) (*Client, error) {
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse base url")
	}
	if parsedBaseURL.Scheme == "" || parsedBaseURL.Host == "" {
		return nil, errors.Wrapf(errs.InvalidArgument, "base url %q must be absolute", baseURL)
	}
	var cf Config
	if len(config) > 0 {
		cf = config[0]
	}
	if len(cf.Headers) == 0 {
		cf.Headers = make(map[string]string)
	}
	if cf.Timeout <= 0 {
		cf.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: parsedBaseURL,
		Config:  cf,
	}, nil
}

type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool {
	return r.StatusCode >= fasthttp.StatusBadRequest
}

// PostJSON encodes payload as the JSON request body and posts it to path, relative to the base url.
func (h *Client) PostJSON(ctx context.Context, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal payload")
	}
	return h.do(ctx, fasthttp.MethodPost, path, body)
}

func (h *Client) do(ctx context.Context, method, reqPath string, body []byte) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	target := h.URL(reqPath)
	req.SetRequestURI(target)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	timeout := h.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	start := time.Now()
	err := fasthttp.DoTimeout(req, resp, timeout)
	if h.Debug {
		logger.DebugContext(ctx, "Finished http request",
			slogx.String("package", "httpclient"),
			slogx.String("method", method),
			slogx.String("url", target),
			slogx.Duration("duration", time.Since(start)),
			slogx.Int("status_code", resp.StatusCode()),
			slogx.Int("resp_content_length", len(resp.Body())),
		)
	}
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, errors.Join(errors.Wrapf(err, "%s %s", method, target), errs.Timeout)
		}
		return nil, errors.Wrapf(err, "%s %s", method, target)
	}

	return &Response{
		URL:        target,
		StatusCode: resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
	}, nil
}

// URL resolves path against the base url.
func (h *Client) URL(reqPath string) string {
	u := *h.baseURL
	u.Path = path.Join(u.Path, reqPath)
	return strings.TrimSuffix(u.String(), "/")
}
