package sessions

import (
	"math"
	"testing"

	"failover_trader/internal/models"
)

func TestCalcSizeByLeverage(t *testing.T) {
	cases := []struct {
		name                  string
		cash, price, leverage float64
		want                  float64
	}{
		{"reference", 200000, 65432, 8, 24},
		{"exact", 1000, 100, 1, 10},
		{"floor", 1000, 300, 1, 3},
		{"zero price", 1000, 0, 8, 0},
		{"negative price", 1000, -5, 8, 0},
		{"zero cash", 0, 100, 8, 0},
		{"negative cash", -10, 100, 8, 0},
		{"cash below price", 10, 100, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalcSizeByLeverage(tc.cash, tc.price, tc.leverage); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestNetProfit_CommissionGate(t *testing.T) {
	const rate = 0.0001
	cases := []struct {
		current float64
		net     float64
		allowed bool
	}{
		{100.2, 0.17998, true},
		{100.05, 0.029995, true},
		{100.01, -0.010001, false},
		{100, -0.02, false},
	}
	for _, tc := range cases {
		_, _, net := NetProfit(models.Long, 100, tc.current, 1, rate)
		if math.Abs(net-tc.net) > 1e-9 {
			t.Errorf("current=%v net=%v want %v", tc.current, net, tc.net)
		}
		if got := ExitAllowed(models.Long, 100, tc.current, 1, rate); got != tc.allowed {
			t.Errorf("current=%v allowed=%v", tc.current, got)
		}
	}

	// short зеркально
	if !ExitAllowed(models.Short, 100, 99.8, 1, rate) {
		t.Errorf("short profitable exit must be allowed")
	}
	if ExitAllowed(models.Short, 100, 99.99, 1, rate) {
		t.Errorf("short exit under commission must be blocked")
	}
}

func TestBracketLevels(t *testing.T) {
	p := models.DefaultStrategyParams()

	tp, sl := BracketLevels(models.Long, 100, p)
	if math.Abs(tp-110) > 1e-9 || math.Abs(sl-99.5) > 1e-9 {
		t.Fatalf("long tp=%v sl=%v", tp, sl)
	}
	tp, sl = BracketLevels(models.Short, 100, p)
	if math.Abs(tp-90) > 1e-9 || math.Abs(sl-100.5) > 1e-9 {
		t.Fatalf("short tp=%v sl=%v", tp, sl)
	}
}
