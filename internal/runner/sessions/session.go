package sessions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"
	strategy "failover_trader/internal/modules/strategy/service"

	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrCancelAfterFill   = errors.New("cannot cancel: entry already filled")
	ErrSessionHalted     = errors.New("session halted")
)

// Dispatcher отправка ордеров через failover и отмена у того брокера, что принял.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	Cancel(ctx context.Context, orderID string) error
}

// EventSink не должен блокировать.
type EventSink interface {
	Emit(ev models.TradeEvent)
}

// EntryGate проверка времени входа, nil пропускает всё.
type EntryGate interface {
	Allow(t time.Time) bool
}

type Config struct {
	Instrument string
	Capital    float64
	MaxHistory int
}

type pendingOrder struct {
	OrderID   string
	Broker    string
	Exit      bool
	Direction models.Direction
	Quantity  float64
	RefPrice  float64
	Reason    string
}

// Session машина состояний одного инструмента: Flat → Entering → Open → Exiting → Flat.
// Все переходы идут под mu, один писатель на инструмент.
type Session struct {
	mu sync.Mutex

	instrument string
	params     models.StrategyParams
	engine     *strategy.Engine
	gate       EntryGate
	disp       Dispatcher
	events     EventSink
	log        *zap.Logger
	metrics    *metrics.Metrics

	state      models.PositionState
	halted     bool
	history    []models.Bar
	maxHistory int
	pos        *models.Position
	pending    *pendingOrder
	exitRetry  string
	applied    *appliedFills

	cash      float64
	realized  float64
	trades    int
	wins      int
	lastPrice float64
	lastBar   time.Time

	// снимок для статуса без ожидания mu во время диспетчеризации
	status atomic.Pointer[models.SessionStatus]
}

func NewSession(
	cfg Config,
	engine *strategy.Engine,
	gate EntryGate,
	disp Dispatcher,
	events EventSink,
	log *zap.Logger,
	m *metrics.Metrics,
) *Session {
	maxHistory := cfg.MaxHistory
	if need := engine.Params().StartupCandles + 2; maxHistory < need {
		maxHistory = need
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	s := &Session{
		instrument: cfg.Instrument,
		params:     engine.Params(),
		engine:     engine,
		gate:       gate,
		disp:       disp,
		events:     events,
		log:        log.With(zap.String("instrument", cfg.Instrument)),
		metrics:    m,
		state:      models.StateFlat,
		maxHistory: maxHistory,
		applied:    newAppliedFills(appliedFillsLimit),
		cash:       cfg.Capital,
	}
	s.publish()
	return s
}

func (s *Session) Instrument() string { return s.instrument }

// Status последний опубликованный снимок.
func (s *Session) Status() models.SessionStatus {
	return *s.status.Load()
}

// Prime заливает историю без оценки сигналов (прогрев).
func (s *Session) Prime(bars []models.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		s.pushBar(b)
	}
	s.publish()
}

// Resume снимает остановку после ручного разбора. Состояние не меняется.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = false
	s.log.Warn("session resumed", zap.String("state", string(s.state)))
	s.publish()
}

func (s *Session) pushBar(b models.Bar) {
	s.history = append(s.history, b)
	if over := len(s.history) - s.maxHistory; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
	s.lastPrice = b.Close
	s.lastBar = b.Time
}

// halt переводит сессию в остановку: дальнейшие вызовы получают ErrSessionHalted.
func (s *Session) halt(err error) error {
	s.halted = true
	s.log.Error("session halted", zap.String("state", string(s.state)), zap.Error(err))
	s.publish()
	return err
}

func (s *Session) emit(ev models.TradeEvent) {
	ev.Instrument = s.instrument
	if ev.Time.IsZero() {
		ev.Time = s.lastBar
	}
	if s.events != nil {
		s.events.Emit(ev)
	}
}

func (s *Session) publish() {
	st := models.SessionStatus{
		Instrument:  s.instrument,
		State:       s.state,
		Halted:      s.halted,
		Cash:        s.cash,
		RealizedPnL: s.realized,
		Trades:      s.trades,
		Wins:        s.wins,
		LastPrice:   s.lastPrice,
		Bars:        len(s.history),
		Updated:     s.lastBar,
	}
	if s.pos != nil {
		p := *s.pos
		st.Position = &p
	}
	if s.pending != nil {
		st.PendingID = s.pending.OrderID
	}
	s.status.Store(&st)
}

// сколько последних исполненных ордеров помним для отсева повторов
const appliedFillsLimit = 256

// appliedFills последние применённые id ордеров, старые вытесняются по кругу.
type appliedFills struct {
	ids  map[string]struct{}
	ring []string
	next int
}

func newAppliedFills(limit int) *appliedFills {
	return &appliedFills{
		ids:  make(map[string]struct{}, limit),
		ring: make([]string, 0, limit),
	}
}

func (a *appliedFills) has(id string) bool {
	_, ok := a.ids[id]
	return ok
}

func (a *appliedFills) add(id string) {
	if a.has(id) {
		return
	}
	if len(a.ring) < cap(a.ring) {
		a.ring = append(a.ring, id)
	} else {
		delete(a.ids, a.ring[a.next])
		a.ring[a.next] = id
		a.next = (a.next + 1) % len(a.ring)
	}
	a.ids[id] = struct{}{}
}

func (a *appliedFills) size() int { return len(a.ids) }
