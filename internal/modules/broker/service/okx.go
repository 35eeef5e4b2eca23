package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"failover_trader/internal/helper"
	"failover_trader/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const okxBaseURL = "https://www.okx.com"

// OKX адаптер к REST v5: рыночный ордер с прикреплёнными TP/SL (attachAlgoOrds).
type OKX struct {
	name    string
	baseURL string

	http      *http.Client
	apiKey    string
	apiSecret string
	passph    string

	mu     sync.Mutex
	instOf map[string]string // ordId -> instId, cancel-order требует instId
	now    func() time.Time
}

func NewOKX(cfg models.BrokerConfig, creds Credentials, timeout time.Duration) *OKX {
	base := strings.TrimRight(cfg.Endpoint, "/")
	if base == "" {
		base = okxBaseURL
	}
	return &OKX{
		name:      cfg.Name,
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		apiKey:    creds.APIKey,
		apiSecret: creds.APISecret,
		passph:    creds.Passphrase,
		instOf:    make(map[string]string),
		now:       time.Now,
	}
}

func (c *OKX) Name() string { return c.name }

// sign OK-ACCESS-SIGN: base64(hmac_sha256(ts + method + path + body)).
func (c *OKX) sign(ts, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(ts + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type okxOrderResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	} `json:"data"`
}

func (c *OKX) PlaceBracketOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, error) {
	if req.Quantity <= 0 {
		return models.OrderAck{}, fmt.Errorf("%s: size <= 0", c.name)
	}

	body := map[string]any{
		"instId":  req.Instrument,
		"tdMode":  "cross",
		"side":    strings.ToLower(string(req.Side)),
		"ordType": "market",
		"sz":      helper.FormatQty(req.Quantity),
		"clOrdId": helper.ClientOrderID(req.ClientID),
	}
	if req.ReduceOnly {
		body["reduceOnly"] = true
	} else {
		body["attachAlgoOrds"] = []map[string]string{{
			"tpTriggerPx": helper.FormatDecimal(req.TargetPrice, 8),
			"tpOrdPx":     "-1",
			"slTriggerPx": helper.FormatDecimal(req.StopPrice, 8),
			"slOrdPx":     "-1",
		}}
	}

	var r okxOrderResponse
	if err := c.do(ctx, "/api/v5/trade/order", body, &r); err != nil {
		return models.OrderAck{}, errors.Wrap(err, c.name+" place order")
	}
	if len(r.Data) == 0 {
		return models.OrderAck{}, fmt.Errorf("%s: empty data code=%s msg=%s", c.name, r.Code, r.Msg)
	}
	d := r.Data[0]
	if r.Code != "0" || d.SCode != "0" {
		return models.OrderAck{}, fmt.Errorf("%s okx error: code=%s msg=%s sCode=%s sMsg=%s", c.name, r.Code, r.Msg, d.SCode, d.SMsg)
	}

	c.mu.Lock()
	c.instOf[d.OrdID] = req.Instrument
	c.mu.Unlock()

	return models.OrderAck{OrderID: d.OrdID, Broker: c.name}, nil
}

func (c *OKX) CancelOrder(ctx context.Context, orderID string) error {
	c.mu.Lock()
	instID, ok := c.instOf[orderID]
	c.mu.Unlock()
	if !ok {
		return ErrUnknownOrder
	}

	body := map[string]string{"instId": instID, "ordId": orderID}

	var r okxOrderResponse
	if err := c.do(ctx, "/api/v5/trade/cancel-order", body, &r); err != nil {
		return errors.Wrap(err, c.name+" cancel order")
	}
	if r.Code != "0" || len(r.Data) == 0 || r.Data[0].SCode != "0" {
		return fmt.Errorf("%s cancel reject: code=%s msg=%s", c.name, r.Code, r.Msg)
	}

	c.mu.Lock()
	delete(c.instOf, orderID)
	c.mu.Unlock()
	return nil
}

func (c *OKX) do(ctx context.Context, requestPath string, body any, out any) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	ts := c.now().UTC().Format("2006-01-02T15:04:05.000Z")
	sign := c.sign(ts, http.MethodPost, requestPath, string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", sign)
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode: %w RAW=%s", err, string(data))
	}
	return nil
}
