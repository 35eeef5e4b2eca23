package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"failover_trader/internal/models"
)

// Record строка выгрузки пайплайна индикаторов: бар и снимок на его закрытие.
type Record struct {
	Instrument string
	Bar        models.Bar
	Snapshot   models.IndicatorSnapshot
}

var requiredColumns = []string{"instrument", "time", "open", "high", "low", "close"}

// ReadCSV читает выгрузку с заголовком. Колонки индикаторов необязательны,
// отсутствующие остаются нулевыми. Время в RFC3339 или unix-секундах.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(row []string, idx map[string]int) (Record, error) {
	p := rowParser{row: row, idx: idx}

	rec := Record{Instrument: p.str("instrument")}
	if rec.Instrument == "" {
		return Record{}, fmt.Errorf("empty instrument")
	}
	rec.Bar = models.Bar{
		Time:   p.time("time"),
		Open:   p.float("open"),
		High:   p.float("high"),
		Low:    p.float("low"),
		Close:  p.float("close"),
		Volume: p.float("volume"),
	}
	rec.Snapshot = models.IndicatorSnapshot{
		VeryFastEMA:     p.float("very_fast_ema"),
		FastEMA:         p.float("fast_ema"),
		MidEMA:          p.float("mid_ema"),
		RSI:             p.float("rsi"),
		MomentumBullish: p.bool("momentum_bullish"),
		MomentumBearish: p.bool("momentum_bearish"),
		Band:            p.float("band"),
		BandDirection:   int(p.float("band_direction")),
	}
	if p.err != nil {
		return Record{}, p.err
	}
	if rec.Bar.Close <= 0 {
		return Record{}, fmt.Errorf("non-positive close %v", rec.Bar.Close)
	}
	return rec, nil
}

// rowParser запоминает первую ошибку, как bufio.Scanner.
type rowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *rowParser) str(col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) float(col string) float64 {
	s := p.str(col)
	if s == "" || p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return f
}

func (p *rowParser) bool(col string) bool {
	s := p.str(col)
	if s == "" || p.err != nil {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return b
}

func (p *rowParser) time(col string) time.Time {
	s := p.str(col)
	if p.err != nil {
		return time.Time{}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return t
}

// GroupByInstrument сохраняет порядок строк внутри инструмента.
func GroupByInstrument(recs []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range recs {
		out[r.Instrument] = append(out[r.Instrument], r)
	}
	return out
}
