package camunda

import (
	"context"
	"fmt"
	"time"

	"tour-sync/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const defaultRequestTimeout = 10 * time.Second

// Client owns the gateway connection shared by every sync worker.
type Client struct {
	zeebe          zbc.Client
	address        string
	requestTimeout time.Duration
}

// NewClient dials the gateway in plaintext and fails unless the topology answers
// within the request timeout.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	timeout := config.GetDuration(cfg.RequestTimeout)
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	zeebe, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("zeebe client for %s: %w", cfg.BrokerAddress, err)
	}

	c := &Client{zeebe: zeebe, address: cfg.BrokerAddress, requestTimeout: timeout}
	if err := c.HealthCheck(context.Background()); err != nil {
		_ = zeebe.Close()
		return nil, err
	}
	return c, nil
}

// GetClient returns the raw client job workers poll with.
func (c *Client) GetClient() zbc.Client {
	return c.zeebe
}

func (c *Client) Close() error {
	return c.zeebe.Close()
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.zeebe.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe gateway %s unreachable: %w", c.address, err)
	}
	return nil
}
