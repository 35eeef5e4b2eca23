package service

import (
	"context"
	"time"

	"failover_trader/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultReconnect = time.Second
	pingEvery        = 20 * time.Second
	writeWait        = 5 * time.Second
)

// Handler получатель закрытых баров. false значит бар не принят (лог и дальше).
type Handler func(instrument string, bar models.Bar, snap models.IndicatorSnapshot) bool

// Frame кадр индикаторного пайплайна.
type Frame struct {
	Type       string                   `json:"type"`
	Instrument string                   `json:"instrument"`
	Bar        models.Bar               `json:"bar"`
	Snapshot   models.IndicatorSnapshot `json:"snapshot"`
}

type subscribe struct {
	Op          string   `json:"op"`
	Instruments []string `json:"instruments"`
}

// Client подписчик на бары и снимки индикаторов по websocket.
// После обрыва переподключается, пока не отменён ctx.
type Client struct {
	url         string
	instruments []string
	reconnect   time.Duration
	dialer      *websocket.Dialer
	log         *zap.Logger

	onConn func(connected bool)
}

func NewClient(url string, instruments []string, reconnect time.Duration, log *zap.Logger) *Client {
	if reconnect <= 0 {
		reconnect = defaultReconnect
	}
	return &Client{
		url:         url,
		instruments: instruments,
		reconnect:   reconnect,
		dialer:      &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:         log.Named("feed"),
	}
}

// OnConnState вызывается при подключении и обрыве. Ставить до Run.
func (c *Client) OnConnState(fn func(connected bool)) { c.onConn = fn }

func (c *Client) setConnected(v bool) {
	if c.onConn != nil {
		c.onConn(v)
	}
}

func (c *Client) Run(ctx context.Context, h Handler) {
	for {
		err := c.session(ctx, h)
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("feed disconnected", zap.String("url", c.url), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnect):
		}
	}
}

func (c *Client) session(ctx context.Context, h Handler) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer conn.Close()

	sub, err := sonic.Marshal(subscribe{Op: "subscribe", Instruments: c.instruments})
	if err != nil {
		return errors.Wrap(err, "marshal subscribe")
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return errors.Wrap(err, "subscribe")
	}
	c.log.Info("feed connected", zap.String("url", c.url), zap.Strings("instruments", c.instruments))
	c.setConnected(true)
	defer c.setConnected(false)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				// разблокирует ReadMessage
				_ = conn.Close()
				return
			case <-t.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}

		f, ok := decode(msg)
		if !ok {
			c.log.Debug("frame skipped", zap.ByteString("raw", msg))
			continue
		}
		if !h(f.Instrument, f.Bar, f.Snapshot) {
			c.log.Debug("bar not accepted", zap.String("instrument", f.Instrument), zap.Time("bar", f.Bar.Time))
		}
	}
}

// decode пропускает всё, что не закрытый бар с инструментом и положительной ценой.
func decode(msg []byte) (Frame, bool) {
	var f Frame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return Frame{}, false
	}
	if f.Type != "bar" || f.Instrument == "" || f.Bar.Close <= 0 || f.Bar.Time.IsZero() {
		return Frame{}, false
	}
	return f, true
}
