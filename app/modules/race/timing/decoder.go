package timing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	racemetrics "github.com/Black-And-White-Club/slalom-timing/internal/metrics/race"
	"golang.org/x/time/rate"
)

// DefaultQueueSize bounds the events buffered between decoder and model.
const DefaultQueueSize = 256

// DecoderOptions configures a Decoder. Zero values select defaults.
type DecoderOptions struct {
	Parser    FrameParser
	Armed     ArmedChannels
	QueueSize int
	// OnError is called from the read goroutine for every line that did not
	// produce an event. It must not block.
	OnError func(*DecodeError)
	Logger  *slog.Logger
	Metrics racemetrics.RaceMetrics
}

// Decoder reads frames from a Device and publishes timing events on a
// bounded queue. The read loop never waits for consumers.
type Decoder struct {
	device  Device
	parser  FrameParser
	armed   ArmedChannels
	queue   *EventQueue
	onError func(*DecodeError)
	logger  *slog.Logger
	metrics racemetrics.RaceMetrics
	warn    rate.Sometimes
}

func NewDecoder(device Device, opts DecoderOptions) *Decoder {
	if opts.Parser == nil {
		opts.Parser = AlgeTdC8001{}
	}
	if opts.Armed == nil {
		opts.Armed = NewArmedMap()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = racemetrics.NoOpMetrics{}
	}
	return &Decoder{
		device:  device,
		parser:  opts.Parser,
		armed:   opts.Armed,
		queue:   NewEventQueue(opts.QueueSize),
		onError: opts.OnError,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		warn:    rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// Events is closed when Run returns.
func (d *Decoder) Events() <-chan Event { return d.queue.C() }

// Dropped counts events discarded because nobody consumed them in time.
func (d *Decoder) Dropped() uint64 { return d.queue.Dropped() }

// Run reads until the device ends, fails, or ctx is cancelled. Cancelling
// closes the device to unblock the pending read.
func (d *Decoder) Run(ctx context.Context) error {
	defer d.queue.Close()
	stop := context.AfterFunc(ctx, func() { _ = d.device.Close() })
	defer stop()

	d.logger.InfoContext(ctx, "Timing decoder started")
	for {
		line, err := d.device.ReadFrame()
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			d.reject(ctx, decErr)
			continue
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				d.logger.InfoContext(ctx, "Timing decoder stopped", slog.Uint64("dropped", d.Dropped()))
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		d.handle(ctx, line)
	}
}

func (d *Decoder) handle(ctx context.Context, line string) {
	ev, err := d.Decode(line)
	if err != nil {
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			decErr = &DecodeError{Line: line, Err: err}
		}
		if errors.Is(err, ErrNotAnImpulse) {
			d.logger.DebugContext(ctx, "Skipping informational frame", slog.String("line", line))
			return
		}
		d.reject(ctx, decErr)
		return
	}

	d.metrics.RecordFrameDecoded(ctx, ChannelOf(ev).String())
	if !d.queue.Push(ev) {
		d.metrics.RecordEventDropped(ctx)
		d.warn.Do(func() {
			d.logger.WarnContext(ctx, "Timing queue full, dropped oldest event", slog.Uint64("dropped", d.Dropped()))
		})
	}
}

func (d *Decoder) reject(ctx context.Context, decErr *DecodeError) {
	d.metrics.RecordFrameRejected(ctx, reason(decErr.Err))
	d.warn.Do(func() {
		d.logger.WarnContext(ctx, "Rejected timing frame",
			slog.String("line", decErr.Line),
			slog.Any("error", decErr.Err),
		)
	})
	if d.onError != nil {
		d.onError(decErr)
	}
}

// Decode turns one device line into an event without queueing it.
func (d *Decoder) Decode(line string) (Event, error) {
	f, err := d.parser.Parse(line)
	if err != nil {
		return nil, &DecodeError{Line: line, Err: err}
	}
	if f.Kind != FrameImpulse {
		return nil, &DecodeError{Line: line, Err: ErrNotAnImpulse}
	}

	sn := f.StartNumber
	if sn == 0 {
		armed, ok := d.armed.Armed(f.Channel)
		if !ok || armed == 0 {
			return nil, &DecodeError{Line: line, Err: fmt.Errorf("%w: %s", ErrNoArmedStartNumber, f.Channel)}
		}
		sn = armed
	}

	return newEvent(f.Channel, Stamp{
		StartNumber: sn,
		Time:        f.Time,
		Manual:      f.Manual,
		Raw:         f.Raw,
	}), nil
}

// Arm announces startNumber as the next impulse owner on ch, both locally and
// to the device when the protocol supports it.
func (d *Decoder) Arm(ch Channel, startNumber uint) error {
	if m, ok := d.armed.(*ArmedMap); ok {
		m.Arm(ch, startNumber)
	}
	cmd, ok := d.parser.EncodeArm(ch, startNumber)
	if !ok {
		return nil
	}
	return d.device.WriteCommand(cmd)
}
