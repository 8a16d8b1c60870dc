package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/castle-go/internal/bridge/config"
	"github.com/yndnr/castle-go/internal/cli/client"
)

// statusReport is the combined health and statistics of a running bridge.
type statusReport struct {
	Endpoint       string  `json:"endpoint" yaml:"endpoint" table:"ENDPOINT"`
	Status         string  `json:"status" yaml:"status" table:"STATUS"`
	Error          string  `json:"error,omitempty" yaml:"error,omitempty" table:"ERROR"`
	QueueState     string  `json:"queue_state" yaml:"queue_state" table:"QUEUE STATE"`
	QueueLen       int     `json:"queue_len" yaml:"queue_len" table:"QUEUE LEN"`
	QueueCapacity  int     `json:"queue_capacity" yaml:"queue_capacity" table:"QUEUE CAPACITY"`
	Outstanding    int64   `json:"outstanding" yaml:"outstanding" table:"OUTSTANDING"`
	LiveHandles    int64   `json:"live_handles" yaml:"live_handles" table:"LIVE HANDLES,wide"`
	AllocFailures  uint64  `json:"alloc_failures" yaml:"alloc_failures" table:"ALLOC FAILURES,wide"`
	Delivered      uint64  `json:"delivered" yaml:"delivered" table:"DELIVERED"`
	DeliveredBytes uint64  `json:"delivered_bytes" yaml:"delivered_bytes" table:"DELIVERED BYTES,wide"`
	DeliveryRate   float64 `json:"delivery_rate" yaml:"delivery_rate" table:"DELIVERY RATE"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show health and statistics of a running castle-bridged",
		Description: `Queries the operational endpoint of castle-bridged. ADDR is host:port,
an http(s) URL, or the admin socket as unix:///path or an absolute path.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Bridge endpoint `ADDR`",
				Value:   config.DefaultMetricsAddr,
				EnvVars: []string{"CASTLE_ADDR"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: client.DefaultTimeout,
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := client.New(c.String("addr"), c.Duration("timeout"))
			if err != nil {
				return err
			}
			health, err := cl.Health(c.Context)
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			stats, err := cl.Stats(c.Context)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			report := statusReport{
				Endpoint:       c.String("addr"),
				Status:         health.Status,
				Error:          health.Error,
				QueueState:     stats.Queue.State.String(),
				QueueLen:       stats.Queue.Len,
				QueueCapacity:  stats.Queue.Capacity,
				Outstanding:    stats.Outstanding,
				LiveHandles:    stats.LiveHandles,
				AllocFailures:  stats.AllocFailures,
				Delivered:      stats.Delivered,
				DeliveredBytes: stats.DeliveredBytes,
				DeliveryRate:   stats.DeliveryRate,
			}
			if err := render(c, report); err != nil {
				return err
			}
			if health.Error != "" {
				return fmt.Errorf("bridge is %s: %s", health.Status, health.Error)
			}
			return nil
		},
	}
}
