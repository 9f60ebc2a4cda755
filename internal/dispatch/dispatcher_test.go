package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"example.com/fieldops/internal/backend"
	"example.com/fieldops/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeSubmitter records submissions and plays back scripted results
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []backend.SubmitRequest
	results map[string]*models.ScanResult
	errs    map[string]error
	delay   time.Duration
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{
		results: make(map[string]*models.ScanResult),
		errs:    make(map[string]error),
	}
}

func (f *fakeSubmitter) SubmitScan(ctx context.Context, req backend.SubmitRequest) (*models.ScanResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err, ok := f.errs[req.Code]; ok {
		return nil, err
	}
	if res, ok := f.results[req.Code]; ok {
		return res, nil
	}
	return &models.ScanResult{
		Success: true,
		Item:    &models.ScannedItem{ManagementNumber: req.Code, Status: "processed"},
	}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeNotifier counts outcome signals
type fakeNotifier struct {
	mu        sync.Mutex
	succeeded int
	rejected  []string
	failed    []string
}

func (f *fakeNotifier) ScanSucceeded(item *models.ScannedItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.succeeded++
}

func (f *fakeNotifier) ScanRejected(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, message)
}

func (f *fakeNotifier) ScanFailed(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, title)
}

func (f *fakeNotifier) failures() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.failed...)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestDispatcher(t *testing.T, sub Submitter, not Notifier) *Dispatcher {
	t.Helper()
	d := New(Config{
		Request:   backend.SubmitRequest{Process: models.ProcessShipping, UserName: "Alice"},
		Submitter: sub,
		Notifier:  not,
		Logger:    quietLogger(),
		Window:    2 * time.Second,
	})
	t.Cleanup(d.Stop)
	return d
}

func at(base time.Time, offset time.Duration) time.Time { return base.Add(offset) }

func TestDuplicateInsideWindowSubmitsOnce(t *testing.T) {
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	base := time.Now()
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: base}))
	require.False(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: at(base, 500*time.Millisecond)}))

	require.Eventually(t, func() bool { return len(d.Ledger()) == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, 1, sub.callCount())
}

func TestSameCodeAfterWindowSubmitsTwice(t *testing.T) {
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	base := time.Now()
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: base}))
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: at(base, 2500*time.Millisecond)}))

	require.Eventually(t, func() bool { return sub.callCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestDifferentCodeAlwaysAccepted(t *testing.T) {
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	base := time.Now()
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: base}))
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-002", ObservedAt: at(base, time.Millisecond)}))

	require.Eventually(t, func() bool { return sub.callCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestAlternatingCodesNeverSuppressed(t *testing.T) {
	// A-B-A inside the window: the window only suppresses identical
	// consecutive codes
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	base := time.Now()
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-A", ObservedAt: base}))
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-B", ObservedAt: at(base, 100*time.Millisecond)}))
	require.True(t, d.Offer(models.ScanEvent{Code: "QR-A", ObservedAt: at(base, 200*time.Millisecond)}))

	require.Eventually(t, func() bool { return sub.callCount() == 3 }, time.Second, 10*time.Millisecond)
}

func TestEmptyCodeIgnored(t *testing.T) {
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	require.False(t, d.Offer(models.ScanEvent{Code: "", ObservedAt: time.Now()}))
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, sub.callCount())
}

func TestLedgerAppendsInAcceptanceOrder(t *testing.T) {
	sub := newFakeSubmitter()
	sub.delay = 10 * time.Millisecond
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	base := time.Now()
	codes := []string{"QR-001", "QR-002", "QR-003", "QR-004", "QR-005"}
	for i, code := range codes {
		require.True(t, d.Offer(models.ScanEvent{Code: code, ObservedAt: at(base, time.Duration(i)*time.Millisecond)}))
	}

	require.Eventually(t, func() bool { return len(d.Ledger()) == len(codes) }, 2*time.Second, 10*time.Millisecond)

	ledger := d.Ledger()
	for i, code := range codes {
		require.Equal(t, code, ledger[i].ManagementNumber)
	}
}

func TestRejectedScanNeverReachesLedger(t *testing.T) {
	sub := newFakeSubmitter()
	sub.results["QR-BAD"] = &models.ScanResult{Success: false, Message: "unknown label"}
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	require.True(t, d.Offer(models.ScanEvent{Code: "QR-BAD", ObservedAt: time.Now()}))

	require.Eventually(t, func() bool {
		not.mu.Lock()
		defer not.mu.Unlock()
		return len(not.rejected) == 1
	}, time.Second, 10*time.Millisecond)

	require.Empty(t, d.Ledger())
	require.Equal(t, []string{"unknown label"}, not.rejected)
}

func TestFailedSubmissionNeverReachesLedger(t *testing.T) {
	sub := newFakeSubmitter()
	sub.errs["QR-ERR"] = &backend.ServerError{StatusCode: 404}
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	require.True(t, d.Offer(models.ScanEvent{Code: "QR-ERR", ObservedAt: time.Now()}))

	require.Eventually(t, func() bool { return len(not.failures()) == 1 }, time.Second, 10*time.Millisecond)
	require.Empty(t, d.Ledger())
	require.Equal(t, []string{"Endpoint not found"}, not.failures())

	// Failures are terminal per attempt; nothing was retried
	require.Equal(t, 1, sub.callCount())
}

func TestSuccessWithoutItemRecordsNoRow(t *testing.T) {
	sub := newFakeSubmitter()
	sub.results["QR-NOITEM"] = &models.ScanResult{Success: true}
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	require.True(t, d.Offer(models.ScanEvent{Code: "QR-NOITEM", ObservedAt: time.Now()}))

	require.Eventually(t, func() bool {
		not.mu.Lock()
		defer not.mu.Unlock()
		return not.succeeded == 1
	}, time.Second, 10*time.Millisecond)

	require.Empty(t, d.Ledger())
}

func TestSubmissionCarriesWorkflowSnapshot(t *testing.T) {
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := New(Config{
		Request: backend.SubmitRequest{
			Process:  models.ProcessShipping,
			Company:  &models.Company{ID: 5, Name: "Acme"},
			UserName: "Alice",
			Note:     "dock 2",
		},
		Submitter: sub,
		Notifier:  not,
		Logger:    quietLogger(),
	})
	defer d.Stop()

	require.True(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: time.Now()}))
	require.Eventually(t, func() bool { return sub.callCount() == 1 }, time.Second, 10*time.Millisecond)

	sub.mu.Lock()
	got := sub.calls[0]
	sub.mu.Unlock()
	require.Equal(t, "QR-001", got.Code)
	require.Equal(t, models.ProcessShipping, got.Process)
	require.Equal(t, 5, got.Company.ID)
	require.Equal(t, "Alice", got.UserName)
	require.Equal(t, "dock 2", got.Note)
}

func TestLedgerIsSnapshotCopy(t *testing.T) {
	sub := newFakeSubmitter()
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	require.True(t, d.Offer(models.ScanEvent{Code: "QR-001", ObservedAt: time.Now()}))
	require.Eventually(t, func() bool { return len(d.Ledger()) == 1 }, time.Second, 10*time.Millisecond)

	snap := d.Ledger()
	snap[0].ManagementNumber = "mutated"
	require.Equal(t, "QR-001", d.Ledger()[0].ManagementNumber)
}

func TestFailedSubmissionError(t *testing.T) {
	sub := newFakeSubmitter()
	sub.errs["QR-NET"] = &backend.NetworkError{Err: errors.New("dial tcp: refused")}
	not := &fakeNotifier{}
	d := newTestDispatcher(t, sub, not)

	require.True(t, d.Offer(models.ScanEvent{Code: "QR-NET", ObservedAt: time.Now()}))
	require.Eventually(t, func() bool { return len(not.failures()) == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"Connection failed"}, not.failures())
}
