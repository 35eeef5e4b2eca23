package service

import (
	"bytes"
	"context"
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

const openAlgoStrategy = "FailoverTrader"

// OpenAlgo адаптер к унифицированному REST API OpenAlgo (один API на
// AngelOne, Groww, Zerodha). Вход ставится брекет-ордером.
type OpenAlgo struct {
	name     string
	baseURL  string
	apiKey   string
	exchange string
	product  string
	http     *http.Client

	mu     sync.Mutex
	orders map[string]string // orderID -> symbol
}

func NewOpenAlgo(cfg models.BrokerConfig, creds Credentials, timeout time.Duration) *OpenAlgo {
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "NSE"
	}
	product := cfg.Product
	if product == "" {
		product = "MIS"
	}
	return &OpenAlgo{
		name:     cfg.Name,
		baseURL:  strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   creds.APIKey,
		exchange: exchange,
		product:  product,
		http:     &http.Client{Timeout: timeout},
		orders:   make(map[string]string),
	}
}

func (o *OpenAlgo) Name() string { return o.name }

type openAlgoResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"orderid"`
	Message string `json:"message"`
}

func (o *OpenAlgo) PlaceBracketOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, error) {
	body := map[string]string{
		"apikey":    o.apiKey,
		"strategy":  openAlgoStrategy,
		"symbol":    req.Instrument,
		"action":    string(req.Side),
		"exchange":  o.exchange,
		"pricetype": "MARKET",
		"product":   o.product,
		"quantity":  helper.FormatQty(req.Quantity),
	}
	if req.ReduceOnly {
		// выход: обычный рыночный ордер, брекет уже снят
		body["order_type"] = "REGULAR"
	} else {
		body["order_type"] = "BRACKET"
		body["target_price"] = helper.FormatDecimal(req.TargetPrice, 2)
		body["stoploss_price"] = helper.FormatDecimal(req.StopPrice, 2)
		body["trailing_stoploss"] = "0"
	}

	var r openAlgoResponse
	if err := o.post(ctx, "/api/v1/placeorder", body, &r); err != nil {
		return models.OrderAck{}, errors.Wrap(err, o.name+" placeorder")
	}
	if r.Status != "success" || r.OrderID == "" {
		return models.OrderAck{}, fmt.Errorf("%s placeorder rejected: %s", o.name, r.Message)
	}

	o.mu.Lock()
	o.orders[r.OrderID] = req.Instrument
	o.mu.Unlock()

	return models.OrderAck{OrderID: r.OrderID, Broker: o.name}, nil
}

func (o *OpenAlgo) CancelOrder(ctx context.Context, orderID string) error {
	body := map[string]string{
		"apikey":   o.apiKey,
		"strategy": openAlgoStrategy,
		"orderid":  orderID,
	}

	var r openAlgoResponse
	if err := o.post(ctx, "/api/v1/cancelorder", body, &r); err != nil {
		return errors.Wrap(err, o.name+" cancelorder")
	}
	if r.Status != "success" {
		return fmt.Errorf("%s cancelorder rejected: %s", o.name, r.Message)
	}

	o.mu.Lock()
	delete(o.orders, orderID)
	o.mu.Unlock()
	return nil
}

func (o *OpenAlgo) post(ctx context.Context, path string, body any, out any) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w RAW=%s", err, string(data))
	}
	return nil
}
