package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/marketday"
	"BreakoutSentinel/internal/model"
)

const avTimeLayout = "2006-01-02 15:04:05"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage query API.
type AlphaVantageFetcher struct {
	client     *resty.Client
	apiKey     string
	outputSize string
	loc        *time.Location
	now        func() time.Time
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
// Intraday timestamps are interpreted in loc (US/Eastern for US listings).
func NewAlphaVantageFetcher(baseURL, apiKey, outputSize, proxyURL string, timeout time.Duration, loc *time.Location) *AlphaVantageFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &AlphaVantageFetcher{
		client:     client,
		apiKey:     apiKey,
		outputSize: outputSize,
		loc:        loc,
		now:        time.Now,
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avBar is one entry of a "Time Series (<interval>)" object.
type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// avQuote is the "Global Quote" object.
type avQuote struct {
	Symbol string `json:"01. symbol"`
	Price  string `json:"05. price"`
}

func (f *AlphaVantageFetcher) query(ctx context.Context, params map[string]string) (map[string]json.RawMessage, error) {
	params["apikey"] = f.apiKey
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("%w: alphavantage %s: %v", model.ErrTransport, params["function"], err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: alphavantage %s: status %d, body: %s",
			model.ErrTransport, params["function"], resp.StatusCode(), resp.String())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: alphavantage decode: %v", model.ErrTransport, err)
	}
	// Invalid symbols, exhausted quota and premium-only endpoints come back
	// as 200 with a single message field.
	for _, key := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := body[key]; ok {
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				msg = string(raw)
			}
			return nil, fmt.Errorf("%w: alphavantage: %s", model.ErrDataUnavailable, msg)
		}
	}
	return body, nil
}

// compactBars is how many of the latest bars outputsize=compact returns.
const compactBars = 100

// extendedClose is when Alpha Vantage's extended-hours series stops.
const extendedClose = 20 * time.Hour

// intradayParams asks for the smallest series that still holds the bar at
// open: compact while it is among the latest bars, the full series for
// older days, and an explicit month once open is outside the trailing
// 30 days the default series covers.
func (f *AlphaVantageFetcher) intradayParams(symbol, interval string, open time.Time) map[string]string {
	params := map[string]string{
		"function":   "TIME_SERIES_INTRADAY",
		"symbol":     symbol,
		"interval":   interval,
		"outputsize": f.outputSize,
	}
	now := f.now().In(f.loc)
	open = open.In(f.loc)

	day := time.Date(open.Year(), open.Month(), open.Day(), 0, 0, 0, 0, f.loc)
	latest := marketday.LastMarketDay(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.loc))
	if !day.Equal(latest) || barsSince(open, now, day.Add(extendedClose), interval) >= compactBars {
		params["outputsize"] = "full"
	}
	if open.Before(now.AddDate(0, 0, -30)) {
		params["outputsize"] = "full"
		params["month"] = open.Format("2006-01")
	}
	return params
}

// barsSince counts the bars from open up to now, or up to end if earlier.
// An unparseable interval counts as too many.
func barsSince(open, now, end time.Time, interval string) int {
	minutes, err := strconv.Atoi(strings.TrimSuffix(interval, "min"))
	if err != nil || minutes <= 0 {
		return compactBars
	}
	if now.After(end) {
		now = end
	}
	if !now.After(open) {
		return 0
	}
	return int(now.Sub(open)/(time.Duration(minutes)*time.Minute)) + 1
}

// FetchIntradayBars returns the series containing the bar stamped at open.
func (f *AlphaVantageFetcher) FetchIntradayBars(ctx context.Context, symbol, interval string, open time.Time) ([]model.OHLCV, error) {
	body, err := f.query(ctx, f.intradayParams(symbol, interval, open))
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("Time Series (%s)", interval)
	raw, ok := body[key]
	if !ok {
		return nil, fmt.Errorf("%w: time series data not found for interval %s", model.ErrDataUnavailable, interval)
	}
	var series map[string]avBar
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", model.ErrTransport, key, err)
	}

	bars := make([]model.OHLCV, 0, len(series))
	for stamp, b := range series {
		t, err := time.ParseInLocation(avTimeLayout, stamp, f.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q: %v", model.ErrDataUnavailable, stamp, err)
		}
		bar, err := b.toOHLCV(t)
		if err != nil {
			return nil, fmt.Errorf("%w: bar %s: %v", model.ErrDataUnavailable, stamp, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (b avBar) toOHLCV(t time.Time) (model.OHLCV, error) {
	var (
		out model.OHLCV
		err error
	)
	out.Time = t
	if out.Open, err = decimal.NewFromString(b.Open); err != nil {
		return out, err
	}
	if out.High, err = decimal.NewFromString(b.High); err != nil {
		return out, err
	}
	if out.Low, err = decimal.NewFromString(b.Low); err != nil {
		return out, err
	}
	if out.Close, err = decimal.NewFromString(b.Close); err != nil {
		return out, err
	}
	if b.Volume != "" {
		v, err := decimal.NewFromString(b.Volume)
		if err != nil {
			return out, err
		}
		out.Volume = v.IntPart()
	}
	return out, nil
}

func (f *AlphaVantageFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	body, err := f.query(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	})
	if err != nil {
		return decimal.Zero, err
	}
	raw, ok := body["Global Quote"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no quote for %s", model.ErrDataUnavailable, symbol)
	}
	var q avQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode quote: %v", model.ErrTransport, err)
	}
	// Unknown symbols return an empty "Global Quote" object.
	if q.Price == "" {
		return decimal.Zero, fmt.Errorf("%w: no quote for %s", model.ErrDataUnavailable, symbol)
	}
	price, err := decimal.NewFromString(q.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad price %q: %v", model.ErrDataUnavailable, q.Price, err)
	}
	return price, nil
}
