package steam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/pkg/errors"

	"skin-monitor/internal/stories/pricing"
)

const (
	DefaultBaseURL = "https://steamcommunity.com/market/priceoverview/"
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

var ErrBadMoney = errors.New("unparseable money value")

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	AppID    int
	Currency int
}

// Client queries the Steam market price overview endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// LookupPrice returns the recent trade (median) and current floor (lowest)
// prices for a market hash name. A nil quote means Steam has no data.
func (c *Client) LookupPrice(ctx context.Context, name string) (*pricing.Quote, error) {
	params := url.Values{}
	params.Set("appid", strconv.Itoa(c.cfg.AppID))
	params.Set("currency", strconv.Itoa(c.cfg.Currency))
	params.Set("market_hash_name", name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("steam price overview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam price overview: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return decodeOverview(body)
}

func decodeOverview(body []byte) (*pricing.Quote, error) {
	var (
		success        bool
		lowest, median string
	)

	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			success = v
			return err
		case "lowest_price":
			v, err := d.Str()
			lowest = v
			return err
		case "median_price":
			v, err := d.Str()
			median = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("decode price overview: %w", err)
	}
	if !success {
		return nil, nil
	}

	quote := &pricing.Quote{}
	if median != "" {
		cents, err := ParseMoney(median)
		if err != nil {
			return nil, err
		}
		quote.RecentTrade = &cents
	}
	if lowest != "" {
		cents, err := ParseMoney(lowest)
		if err != nil {
			return nil, err
		}
		quote.CurrentFloor = &cents
	}
	return quote, nil
}

// ParseMoney converts a Steam formatted amount like "$1,234.56" into cents.
func ParseMoney(s string) (int64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", "USD", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", ErrBadMoney, s)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrBadMoney, s)
	}
	return int64(math.Round(v * 100)), nil
}
