package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"
	"failover_trader/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const DefaultRequestTimeout = 30 * time.Second

var ErrDispatchExhausted = errors.New("dispatch exhausted")

// DispatchError все попытки на всех брокерах провалились.
// errors.Is(err, ErrDispatchExhausted) == true.
type DispatchError struct {
	Instrument string
	Attempts   int
	Reasons    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s failed after %d attempts: %v", e.Instrument, e.Attempts, e.Reasons)
}

func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatchExhausted, e.Reasons}
}

// Failover: maxRetries немедленных попыток на primary, потом одна на backup.
// Вызовы по одному инструменту сериализованы.
type Failover struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFailover(log *zap.Logger, m *metrics.Metrics, timeout time.Duration) *Failover {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Failover{
		log:     log,
		metrics: m,
		timeout: timeout,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (f *Failover) lock(instrument string) func() {
	f.mu.Lock()
	l, ok := f.locks[instrument]
	if !ok {
		l = &sync.Mutex{}
		f.locks[instrument] = l
	}
	f.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (f *Failover) Dispatch(
	ctx context.Context,
	req models.OrderRequest,
	primary, backup Adapter,
	maxRetries int,
) (models.OrderResult, error) {
	unlock := f.lock(req.Instrument)
	defer unlock()

	span, ctx := tracing.StartSpan(ctx, "broker.dispatch", map[string]interface{}{
		"instrument":  req.Instrument,
		"side":        string(req.Side),
		"reduce_only": req.ReduceOnly,
	})
	defer span.Finish()

	var (
		reasons  error
		attempts int
	)

	if primary != nil {
		if res, ok := f.retry(ctx, span, req, primary, models.RolePrimary, maxRetries, &attempts, &reasons); ok {
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		if !errors.Is(reasons, err) {
			reasons = multierr.Append(reasons, err)
		}
		return f.exhausted(span, req, attempts, reasons)
	}

	if backup != nil {
		f.metrics.Failovers.Inc()
		f.log.Warn("switching to backup broker",
			zap.String("instrument", req.Instrument),
			zap.String("backup", backup.Name()),
			zap.Int("primary_attempts", attempts),
		)
		if res, ok := f.retry(ctx, span, req, backup, models.RoleBackup, 1, &attempts, &reasons); ok {
			return res, nil
		}
	}

	if reasons == nil {
		reasons = errors.New("no broker configured")
	}
	return f.exhausted(span, req, attempts, reasons)
}

// DispatchTo до maxRetries попыток на одном брокере, без переключения.
// Для ордеров, которые имеют смысл только на счёте с позицией.
func (f *Failover) DispatchTo(
	ctx context.Context,
	req models.OrderRequest,
	a Adapter,
	role models.BrokerRole,
	maxRetries int,
) (models.OrderResult, error) {
	unlock := f.lock(req.Instrument)
	defer unlock()

	span, ctx := tracing.StartSpan(ctx, "broker.dispatch_to", map[string]interface{}{
		"instrument":  req.Instrument,
		"side":        string(req.Side),
		"reduce_only": req.ReduceOnly,
		"broker":      a.Name(),
	})
	defer span.Finish()

	if maxRetries < 1 {
		maxRetries = 1
	}
	var (
		reasons  error
		attempts int
	)
	if res, ok := f.retry(ctx, span, req, a, role, maxRetries, &attempts, &reasons); ok {
		return res, nil
	}
	return f.exhausted(span, req, attempts, reasons)
}

// retry n попыток на адаптере a, причины отказов копятся в reasons.
func (f *Failover) retry(
	ctx context.Context,
	span opentracing.Span,
	req models.OrderRequest,
	a Adapter,
	role models.BrokerRole,
	n int,
	attempts *int,
	reasons *error,
) (models.OrderResult, bool) {
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			*reasons = multierr.Append(*reasons, err)
			return models.OrderResult{}, false
		}
		*attempts++
		ack, err := f.attempt(ctx, a, req)
		if err == nil {
			return f.placed(span, req, a, ack, role, *attempts), true
		}
		f.failed(a, role, req, i, err)
		*reasons = multierr.Append(*reasons, fmt.Errorf("%s attempt %d: %w", a.Name(), i, err))
	}
	return models.OrderResult{}, false
}

type attemptResult struct {
	ack models.OrderAck
	err error
}

// attempt один вызов адаптера с ограничением по времени. Адаптер, который
// не уважает ctx, не задерживает диспетчер дольше timeout; если он всё же
// примет ордер позже, ордер отменяется.
func (f *Failover) attempt(ctx context.Context, a Adapter, req models.OrderRequest) (models.OrderAck, error) {
	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ch := make(chan attemptResult, 1)
	go func() {
		ack, err := a.PlaceBracketOrder(actx, req)
		ch <- attemptResult{ack: ack, err: err}
	}()

	select {
	case r := <-ch:
		return r.ack, r.err
	case <-actx.Done():
		go f.cancelLate(a, req, ch)
		return models.OrderAck{}, fmt.Errorf("timeout after %s: %w", f.timeout, actx.Err())
	}
}

func (f *Failover) cancelLate(a Adapter, req models.OrderRequest, ch <-chan attemptResult) {
	r := <-ch
	if r.err != nil || r.ack.OrderID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	err := a.CancelOrder(ctx, r.ack.OrderID)
	f.log.Warn("late order acknowledged after timeout",
		zap.String("instrument", req.Instrument),
		zap.String("broker", a.Name()),
		zap.String("order_id", r.ack.OrderID),
		zap.Error(err),
	)
}

func (f *Failover) placed(span opentracing.Span, req models.OrderRequest, a Adapter, ack models.OrderAck, role models.BrokerRole, attempts int) models.OrderResult {
	broker := ack.Broker
	if broker == "" {
		broker = a.Name()
	}
	f.metrics.DispatchAttempts.WithLabelValues(broker, string(role), "ok").Inc()
	span.SetTag("broker", broker)
	span.SetTag("attempts", attempts)

	f.log.Info("order placed",
		zap.String("instrument", req.Instrument),
		zap.String("broker", broker),
		zap.String("role", string(role)),
		zap.String("order_id", ack.OrderID),
		zap.Int("attempts", attempts),
	)
	return models.OrderResult{OrderID: ack.OrderID, Broker: broker, Role: role, Attempts: attempts}
}

func (f *Failover) failed(a Adapter, role models.BrokerRole, req models.OrderRequest, attempt int, err error) {
	f.metrics.DispatchAttempts.WithLabelValues(a.Name(), string(role), "error").Inc()
	f.log.Warn("order attempt failed",
		zap.String("instrument", req.Instrument),
		zap.String("broker", a.Name()),
		zap.String("role", string(role)),
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
}

func (f *Failover) exhausted(span opentracing.Span, req models.OrderRequest, attempts int, reasons error) (models.OrderResult, error) {
	f.metrics.DispatchFailures.Inc()
	span.SetTag("error", true)
	span.SetTag("attempts", attempts)

	err := &DispatchError{Instrument: req.Instrument, Attempts: attempts, Reasons: reasons}
	f.log.Error("order dispatch exhausted",
		zap.String("instrument", req.Instrument),
		zap.Int("attempts", attempts),
		zap.Error(reasons),
	)
	return models.OrderResult{Attempts: attempts}, err
}
