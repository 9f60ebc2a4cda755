// Package dispatch turns the raw stream of decoded label reads into
// at-most-one backend submission per distinct physical scan and keeps
// the in-memory ledger of outcomes for the active scanning session.
package dispatch

import (
	"context"
	"sync"
	"time"

	"example.com/fieldops/internal/backend"
	"example.com/fieldops/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultDuplicateWindow is the interval during which a repeat of the
// same code is treated as sensor noise rather than a new scan. Tunable
// policy, not a correctness constant.
const DefaultDuplicateWindow = 2 * time.Second

const defaultQueueSize = 64

// Submitter is the slice of the backend client the dispatcher needs
type Submitter interface {
	SubmitScan(ctx context.Context, req backend.SubmitRequest) (*models.ScanResult, error)
}

// Notifier is the fire-and-forget feedback sink invoked on every
// submission outcome
type Notifier interface {
	// ScanSucceeded fires on a successful submission; item is nil when
	// the backend confirmed without returning a ledger row
	ScanSucceeded(item *models.ScannedItem)
	// ScanRejected fires when the backend declined the scan
	ScanRejected(message string)
	// ScanFailed fires on a transport or server failure
	ScanFailed(title, message string)
}

// Config assembles a Dispatcher
type Config struct {
	// Request is the snapshotted workflow context; Code is filled in
	// per scan
	Request   backend.SubmitRequest
	Submitter Submitter
	Notifier  Notifier
	Logger    *logrus.Logger
	// Window overrides DefaultDuplicateWindow when positive
	Window time.Duration
}

// Dispatcher consumes scan events, applies the duplicate-window
// acceptance rule and submits accepted scans strictly serially from a
// single worker, so ledger appends always occur in acceptance order.
type Dispatcher struct {
	request   backend.SubmitRequest
	submitter Submitter
	notifier  Notifier
	log       *logrus.Logger
	window    time.Duration
	sessionID string

	mu       sync.Mutex
	lastCode string
	lastTime time.Time
	ledger   []models.ScannedItem

	queue  chan models.ScanEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a dispatcher and starts its worker
func New(cfg Config) *Dispatcher {
	if cfg.Window <= 0 {
		cfg.Window = DefaultDuplicateWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		request:   cfg.Request,
		submitter: cfg.Submitter,
		notifier:  cfg.Notifier,
		log:       cfg.Logger,
		window:    cfg.Window,
		sessionID: uuid.New().String(),
		queue:     make(chan models.ScanEvent, defaultQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	d.wg.Add(1)
	go d.worker()

	d.log.WithFields(logrus.Fields{
		"session_id": d.sessionID,
		"process":    d.request.Process,
		"window":     d.window,
	}).Info("Scan dispatcher started")

	return d
}

// SessionID identifies this scanning session in logs and diagnostics
func (d *Dispatcher) SessionID() string { return d.sessionID }

// Offer applies the acceptance rule to one scan event. Identical
// consecutive codes inside the duplicate window are dropped silently;
// everything else is queued for submission. A different code is always
// accepted regardless of timing, and the same code is accepted again
// once the window has elapsed.
func (d *Dispatcher) Offer(ev models.ScanEvent) bool {
	if ev.Code == "" {
		return false
	}

	d.mu.Lock()
	if ev.Code == d.lastCode && ev.ObservedAt.Sub(d.lastTime) < d.window {
		d.mu.Unlock()
		return false
	}
	d.lastCode = ev.Code
	d.lastTime = ev.ObservedAt
	d.mu.Unlock()

	select {
	case d.queue <- ev:
	default:
		// Acceptance state is already advanced; surface the overload
		// instead of silently dropping the read.
		d.log.WithField("code", ev.Code).Warn("Scan queue full, dropping accepted scan")
		d.notifier.ScanFailed("Scanner busy", "Too many scans queued. Slow down and re-scan the last label.")
	}
	return true
}

// worker drains the accept queue one submission at a time
func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.queue:
			d.submit(ev)
		}
	}
}

func (d *Dispatcher) submit(ev models.ScanEvent) {
	req := d.request
	req.Code = ev.Code

	entry := d.log.WithFields(logrus.Fields{
		"session_id": d.sessionID,
		"code":       ev.Code,
	})

	start := time.Now()
	result, err := d.submitter.SubmitScan(d.ctx, req)
	if err != nil {
		title, message := backend.UserMessage(err)
		entry.WithError(err).Warn("Scan submission failed")
		d.notifier.ScanFailed(title, message)
		return
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = "The server rejected this scan."
		}
		entry.WithField("message", message).Info("Scan rejected by server")
		d.notifier.ScanRejected(message)
		return
	}

	if result.Item != nil {
		d.mu.Lock()
		d.ledger = append(d.ledger, *result.Item)
		d.mu.Unlock()
	}

	entry.WithField("latency", time.Since(start)).Info("Scan processed")
	d.notifier.ScanSucceeded(result.Item)
}

// Ledger returns a snapshot of the session ledger in append order
func (d *Dispatcher) Ledger() []models.ScannedItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.ScannedItem, len(d.ledger))
	copy(out, d.ledger)
	return out
}

// Stop shuts the worker down and waits for any in-flight submission.
// Events still queued are discarded; the ledger cannot mutate after
// Stop returns because only the worker appends to it.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.log.WithField("session_id", d.sessionID).Info("Scan dispatcher stopped")
}
