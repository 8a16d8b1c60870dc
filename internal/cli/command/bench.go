package command

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/castle-go/internal/cli/output"
	"github.com/yndnr/castle-go/internal/connection"
	"github.com/yndnr/castle-go/internal/core/domain"
)

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Submit a burst of asynchronous requests and report delivery rates",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "ops",
				Aliases: []string{"n"},
				Usage:   "Requests per phase",
				Value:   10000,
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Value size in bytes",
				Value: 128,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Submissions per second (0 for unlimited)",
			},
			&cli.IntFlag{
				Name:  "inflight",
				Usage: "Maximum requests awaiting completion",
				Value: 256,
			},
			&cli.BoolFlag{
				Name:  "read",
				Usage: "Read every key back after writing",
			},
			&cli.StringFlag{
				Name:  "key-prefix",
				Usage: "Prefix for generated keys",
				Value: "bench-",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: benchAction,
	}
}

// benchPlan is one bench run's parameters.
type benchPlan struct {
	Ops        int
	Size       int
	Rate       float64
	Inflight   int
	Read       bool
	KeyPrefix  string
	Collection domain.CollectionID
}

// BenchPhase reports one phase of a bench run.
type BenchPhase struct {
	Phase       string        `json:"phase" yaml:"phase"`
	Ops         int           `json:"ops" yaml:"ops"`
	Errors      int64         `json:"errors" yaml:"errors"`
	Dropped     uint64        `json:"dropped" yaml:"dropped"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
	OpsPerSec   float64       `json:"ops_per_sec" yaml:"ops_per_sec"`
	BytesPerSec float64       `json:"bytes_per_sec" yaml:"bytes_per_sec"`
	AvgLatency  time.Duration `json:"avg_latency" yaml:"avg_latency"`
}

// BenchReport is the bench command's result.
type BenchReport struct {
	Phases         []BenchPhase `json:"phases" yaml:"phases"`
	Delivered      uint64       `json:"delivered" yaml:"delivered"`
	DeliveredBytes uint64       `json:"delivered_bytes" yaml:"delivered_bytes"`
	DeliveryRate   float64      `json:"delivery_rate" yaml:"delivery_rate"`
}

// Table implements output.Tabular.
func (r BenchReport) Table(wide bool) *output.Table {
	t := &output.Table{Headers: []string{"PHASE", "OPS", "ELAPSED", "OPS/S", "THROUGHPUT", "AVG LATENCY"}}
	if wide {
		t.Headers = append(t.Headers, "ERRORS", "DROPPED")
	}
	for _, p := range r.Phases {
		row := []string{
			p.Phase,
			humanize.Comma(int64(p.Ops)),
			p.Elapsed.Round(time.Millisecond).String(),
			humanize.CommafWithDigits(p.OpsPerSec, 0),
			humanize.Bytes(uint64(p.BytesPerSec)) + "/s",
			p.AvgLatency.Round(time.Microsecond).String(),
		}
		if wide {
			row = append(row, humanize.Comma(p.Errors), humanize.Comma(int64(p.Dropped)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func benchAction(c *cli.Context) error {
	plan := benchPlan{
		Ops:        c.Int("ops"),
		Size:       c.Int("size"),
		Rate:       c.Float64("rate"),
		Inflight:   c.Int("inflight"),
		Read:       c.Bool("read"),
		KeyPrefix:  c.String("key-prefix"),
		Collection: ParseGlobalFlags(c).Collection,
	}
	if plan.Ops <= 0 || plan.Size < 0 || plan.Inflight <= 0 || plan.Rate < 0 {
		return fmt.Errorf("--ops and --inflight must be positive, --size and --rate non-negative")
	}

	b, release, err := openBridge(c)
	if err != nil {
		return err
	}
	defer release()

	var progress io.Writer
	if !c.Bool("quiet") {
		progress = errWriter(c)
	}
	report, err := runBench(c.Context, b.Conn, plan, progress)
	if err != nil {
		return err
	}
	return render(c, report)
}

func runBench(ctx context.Context, conn *connection.Connection, plan benchPlan, progress io.Writer) (BenchReport, error) {
	var report BenchReport

	phase, err := runPhase(ctx, conn, plan, domain.KindPut, progress)
	if err != nil {
		return report, err
	}
	report.Phases = append(report.Phases, phase)

	if plan.Read {
		phase, err := runPhase(ctx, conn, plan, domain.KindGet, progress)
		if err != nil {
			return report, err
		}
		report.Phases = append(report.Phases, phase)
	}

	stats := conn.Stats()
	report.Delivered = stats.Delivered
	report.DeliveredBytes = stats.DeliveredBytes
	report.DeliveryRate = stats.DeliveryRate
	return report, nil
}

// runPhase submits plan.Ops requests of one kind without waiting for each,
// holding at most plan.Inflight outstanding. Completions dropped by the node
// limit never reach their callback, so their slots are reclaimed from the
// connection's drop counter.
func runPhase(ctx context.Context, conn *connection.Connection, plan benchPlan, kind domain.Kind, progress io.Writer) (BenchPhase, error) {
	phase := BenchPhase{Phase: kind.String(), Ops: plan.Ops}

	var limiter *rate.Limiter
	if plan.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(plan.Rate), max(1, int(plan.Rate/10)))
	}

	var bar *output.ProgressBar
	if progress != nil {
		bar = output.NewProgressBar(progress, phase.Phase, int64(plan.Ops))
	}

	value := make([]byte, plan.Size)
	for i := range value {
		value[i] = byte('a' + i%26)
	}

	var (
		sem       = make(chan struct{}, plan.Inflight)
		completed atomic.Int64
		failed    atomic.Int64
		latency   atomic.Int64
		bytes     atomic.Int64
	)
	baseDrops := conn.Stats().AllocFailures
	reclaimed := uint64(0)
	reclaim := func() uint64 {
		drops := conn.Stats().AllocFailures - baseDrops
		for ; reclaimed < drops; reclaimed++ {
			select {
			case <-sem:
			default:
				return drops
			}
		}
		return drops
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	report := func() {
		if bar != nil {
			bar.Set(completed.Load(), humanize.CommafWithDigits(conn.Stats().DeliveryRate, 0)+" ops/s")
		}
	}

	start := time.Now()
	for i := 0; i < plan.Ops; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return phase, err
			}
		}
	acquire:
		for {
			select {
			case sem <- struct{}{}:
				break acquire
			case <-ticker.C:
				reclaim()
				report()
			case <-ctx.Done():
				return phase, ctx.Err()
			}
		}

		req := &domain.Request{
			Kind:       kind,
			Collection: plan.Collection,
			Key:        []byte(fmt.Sprintf("%s%08d", plan.KeyPrefix, i)),
		}
		if kind == domain.KindPut {
			req.Value = value
		} else {
			req.Buffer = make([]byte, plan.Size+1)
		}

		submitted := time.Now()
		_, err := conn.Submit(ctx, req, domain.CallbackFunc(func(resp domain.Response) error {
			latency.Add(int64(time.Since(submitted)))
			if resp.OK() {
				bytes.Add(int64(plan.Size))
			} else {
				failed.Add(1)
			}
			completed.Add(1)
			<-sem
			return nil
		}))
		if err != nil {
			<-sem
			return phase, fmt.Errorf("%s %d: %w", kind, i, err)
		}
	}

	for {
		drops := reclaim()
		if completed.Load()+int64(drops) >= int64(plan.Ops) {
			phase.Dropped = drops
			break
		}
		select {
		case <-ticker.C:
			report()
		case <-ctx.Done():
			return phase, ctx.Err()
		}
	}
	phase.Elapsed = time.Since(start)
	if bar != nil {
		bar.Finish(humanize.CommafWithDigits(float64(plan.Ops)/phase.Elapsed.Seconds(), 0) + " ops/s")
	}

	done := completed.Load()
	phase.Errors = failed.Load()
	if secs := phase.Elapsed.Seconds(); secs > 0 {
		phase.OpsPerSec = float64(done) / secs
		phase.BytesPerSec = float64(bytes.Load()) / secs
	}
	if done > 0 {
		phase.AvgLatency = time.Duration(latency.Load() / done)
	}
	return phase, nil
}
