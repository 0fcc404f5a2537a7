package flows

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/qr"
)

// ScanHandlers receive classified scans.
type ScanHandlers struct {
	CheckIn func(ctx context.Context, payload string) error
	Payment func(ctx context.Context, storeID string) error
}

// Scanner is the combined scanner: it classifies a payload and hands it to
// the check-in or the payment handler. While one scan is being handled, and
// for the cooldown after it, further scans are rejected rather than queued.
type Scanner struct {
	handlers ScanHandlers
	cooldown time.Duration
	busy     atomic.Bool
}

func NewScanner(h ScanHandlers, cooldown time.Duration) *Scanner {
	return &Scanner{handlers: h, cooldown: cooldown}
}

func (s *Scanner) Busy() bool {
	return s.busy.Load()
}

// Handle classifies payload and dispatches it. It returns the intent it
// acted on, qr.ErrInvalidFormat for a blank payload, ErrScanBusy on
// re-entry, or the handler's error.
func (s *Scanner) Handle(ctx context.Context, payload string) (qr.Intent, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return qr.Intent{}, ErrScanBusy
	}
	defer s.release()

	intent := qr.Classify(payload)
	switch intent.Kind {
	case qr.IntentCheckIn:
		if s.handlers.CheckIn == nil {
			return intent, nil
		}
		return intent, s.handlers.CheckIn(ctx, intent.Payload)
	case qr.IntentPayment:
		if s.handlers.Payment == nil {
			return intent, nil
		}
		return intent, s.handlers.Payment(ctx, intent.Payload)
	default:
		return intent, qr.ErrInvalidFormat
	}
}

func (s *Scanner) release() {
	if s.cooldown <= 0 {
		s.busy.Store(false)
		return
	}
	time.AfterFunc(s.cooldown, func() { s.busy.Store(false) })
}
