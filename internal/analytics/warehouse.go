package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WarehouseSink posts prediction events to a remote analytics warehouse
// endpoint as JSON rows.
type WarehouseSink struct {
	url  string
	rest *resty.Client
}

// NewWarehouseSink builds a sink for the given ingest URL.
func NewWarehouseSink(url string, timeout time.Duration) *WarehouseSink {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	return &WarehouseSink{url: url, rest: r}
}

func (s *WarehouseSink) Name() string { return "warehouse" }

// Log inserts one event row. Any non-2xx response counts as a failure.
func (s *WarehouseSink) Log(ctx context.Context, ev Event) error {
	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ev).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("warehouse insert: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("warehouse insert: unexpected status %d", resp.StatusCode())
	}
	return nil
}
