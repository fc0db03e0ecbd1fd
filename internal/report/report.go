// Package report renders analysis results as terminal text
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"tradelens/internal/analyzer"
	"tradelens/internal/service"
	"tradelens/pkg/model"
)

// money formats a price with exactly two decimals
func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func optFixed(v *float64, places int32) string {
	if v == nil {
		return "N/A"
	}
	return fixed(*v, places)
}

func optMoney(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return money(*v)
}

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// Technical writes the trend checklist and indicator summary
func Technical(w io.Writer, a *model.TechnicalAnalysis) {
	ind := a.Indicators
	fmt.Fprintf(w, "Technical Analysis for %s:\n\n", a.Symbol)

	fmt.Fprintln(w, "Trend Analysis:")
	fmt.Fprintf(w, "- Above 20 SMA: %s\n", check(a.Trend.AboveSMA20))
	fmt.Fprintf(w, "- Above 50 SMA: %s\n", check(a.Trend.AboveSMA50))
	fmt.Fprintf(w, "- Above 200 SMA: %s\n", check(a.Trend.AboveSMA200))
	fmt.Fprintf(w, "- 20/50 SMA Bullish Cross: %s\n", check(a.Trend.SMA20Above50))
	fmt.Fprintf(w, "- 50/200 SMA Bullish Cross: %s\n", check(a.Trend.SMA50Above200))

	fmt.Fprintln(w, "\nMomentum:")
	fmt.Fprintf(w, "- RSI (14): %s", optFixed(a.Trend.RSI, 2))
	if a.RSISignal != "" {
		fmt.Fprintf(w, " (%s)", a.RSISignal)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- MACD Bullish: %s\n", check(a.Trend.MACDBullish))

	fmt.Fprintf(w, "\nLatest Price: %s\n", money(a.LatestPrice))
	fmt.Fprintf(w, "Average True Range (14): %s\n", optFixed(ind.ATR, 2))
	fmt.Fprintf(w, "Average Daily Range Percentage: %s%%\n", optFixed(ind.ADRP, 2))
	fmt.Fprintf(w, "Average Volume (20D): %s\n", optFixed(ind.AvgVolume20, 0))
	if a.VolumeSignal != "" {
		fmt.Fprintf(w, "Volume: %sx avg (%s)\n", fixed(a.VolumeRatio, 2), a.VolumeSignal)
	}
	fmt.Fprintf(w, "Trend Signal: %s\n", a.TrendSignal)
}

// RelativeStrength writes one line per period, shortest first
func RelativeStrength(w io.Writer, rs *service.RSResult) {
	fmt.Fprintf(w, "Relative Strength Analysis for %s vs %s:\n\n", rs.Symbol, rs.Benchmark)
	if len(rs.Periods) == 0 {
		fmt.Fprintln(w, "Insufficient historical data to calculate relative strength.")
		return
	}

	periods := sortedPeriods(rs.Periods)
	for _, p := range periods {
		r := rs.Periods[p]
		fmt.Fprintf(w, "%dd Relative Strength: %s (%s)\n", p, fixed(r.Score, 0), analyzer.RSRating(r.Score))
	}
	fmt.Fprintln(w)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Period", "RS Score", "Stock", "Benchmark", "Excess"}),
	)
	for _, p := range periods {
		r := rs.Periods[p]
		table.Append([]string{
			fmt.Sprintf("%dd", p),
			fixed(r.Score, 0),
			fixed(r.StockReturn, 2) + "%",
			fixed(r.BenchmarkReturn, 2) + "%",
			fixed(r.ExcessReturn, 2) + "%",
		})
	}
	table.Render()
}

// VolumeProfile writes the POC, the value area and the bins
func VolumeProfile(w io.Writer, vp *service.VolumeProfileResult) {
	fmt.Fprintf(w, "Volume Profile Analysis for %s (%d days):\n\n", vp.Symbol, vp.LookbackDays)
	fmt.Fprintf(w, "Point of Control (POC): %s\n", money(vp.PointOfControl))
	fmt.Fprintf(w, "Value Area: %s - %s\n\n", money(vp.ValueAreaLow), money(vp.ValueAreaHigh))

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Price Range", "Volume", "Share", ""}),
	)
	for _, b := range vp.Bins {
		table.Append([]string{
			money(b.PriceLow) + " - " + money(b.PriceHigh),
			fixed(b.Volume, 0),
			fixed(b.VolumePercent, 1) + "%",
			strings.Repeat("█", int(math.Round(b.VolumePercent/5))),
		})
	}
	table.Render()
}

// Patterns writes the detected chart patterns
func Patterns(w io.Writer, pr *service.PatternResult) {
	if len(pr.Patterns) == 0 {
		fmt.Fprintf(w, "No significant chart patterns detected for %s.\n", pr.Symbol)
		if pr.Message != "" {
			fmt.Fprintln(w, pr.Message)
		}
		return
	}

	fmt.Fprintf(w, "Chart Patterns Detected for %s:\n\n", pr.Symbol)
	for _, p := range pr.Patterns {
		fmt.Fprintf(w, "- %s at %s\n", p.Type, money(p.PriceLevel))
		if p.StartDate != nil && p.EndDate != nil {
			fmt.Fprintf(w, "  Period: %s to %s\n", p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))
		}
		fmt.Fprintf(w, "  Confidence: %s\n", p.Confidence)
	}
}

// PositionSize writes the sizing and R-multiple targets
func PositionSize(w io.Writer, ps *service.PositionResult) {
	fmt.Fprintf(w, "Position Sizing for %s at %s:\n\n", ps.Symbol, money(ps.Price))
	fmt.Fprintf(w, "Recommended Position: %d shares (%s)\n", ps.RecommendedShares, money(ps.PositionCost))
	fmt.Fprintf(w, "Risk: %s (%s%% of account)\n", money(ps.DollarRisk), fixed(ps.AccountPercentRisked, 2))
	fmt.Fprintf(w, "Risk per Share: %s\n", money(ps.RiskPerShare))
	if ps.StopPrice > 0 {
		fmt.Fprintf(w, "Stop: %s\n", money(ps.StopPrice))
	}
	fmt.Fprintln(w, "\nPrice Targets:")
	fmt.Fprintf(w, "- R1 (1:1): %s\n", money(ps.R1))
	fmt.Fprintf(w, "- R2 (2:1): %s\n", money(ps.R2))
	fmt.Fprintf(w, "- R3 (3:1): %s\n", money(ps.R3))
}

// Stops writes the candidate stop levels grouped by method
func Stops(w io.Writer, st *service.StopsResult) {
	fmt.Fprintf(w, "Suggested Stop Levels for %s (current %s):\n\n", st.Symbol, money(st.CurrentPrice))

	fmt.Fprintln(w, "ATR-Based Stops:")
	fmt.Fprintf(w, "- Conservative (1x ATR): %s\n", money(st.ATR1x))
	fmt.Fprintf(w, "- Moderate (2x ATR): %s\n", money(st.ATR2x))
	fmt.Fprintf(w, "- Aggressive (3x ATR): %s\n", money(st.ATR3x))

	fmt.Fprintln(w, "\nPercentage-Based Stops:")
	fmt.Fprintf(w, "- Tight (2%%): %s\n", money(st.Percent2))
	fmt.Fprintf(w, "- Medium (5%%): %s\n", money(st.Percent5))
	fmt.Fprintf(w, "- Wide (8%%): %s\n", money(st.Percent8))

	if st.SMA20 != nil || st.SMA50 != nil || st.SMA200 != nil || st.RecentSwing != nil {
		fmt.Fprintln(w, "\nTechnical Levels:")
		if st.SMA20 != nil {
			fmt.Fprintf(w, "- 20 SMA: %s\n", optMoney(st.SMA20))
		}
		if st.SMA50 != nil {
			fmt.Fprintf(w, "- 50 SMA: %s\n", optMoney(st.SMA50))
		}
		if st.SMA200 != nil {
			fmt.Fprintf(w, "- 200 SMA: %s\n", optMoney(st.SMA200))
		}
		if st.RecentSwing != nil {
			fmt.Fprintf(w, "- Recent Swing Low: %s\n", optMoney(st.RecentSwing))
		}
	}
}

// Quote writes a one-line quote
func Quote(w io.Writer, q *model.Quote) {
	fmt.Fprintf(w, "%s %s %s (%s%%) as of %s, volume %s\n",
		q.Symbol, money(q.Price), signed(q.Change), signed(q.ChangePercent),
		q.Time.Format("2006-01-02"), fixed(q.Volume, 0))
}

func signed(v float64) string {
	s := fixed(v, 2)
	if v >= 0 {
		return "+" + s
	}
	return s
}

// Comprehensive writes every available section, then the failed ones
func Comprehensive(w io.Writer, c *service.Comprehensive) {
	fmt.Fprintf(w, "=== Comprehensive Analysis for %s ===\n\n", c.Symbol)
	sections := []func(){}
	if c.Technical != nil {
		sections = append(sections, func() { Technical(w, c.Technical) })
	}
	if c.RelativeStrength != nil {
		sections = append(sections, func() { RelativeStrength(w, c.RelativeStrength) })
	}
	if c.VolumeProfile != nil {
		sections = append(sections, func() { VolumeProfile(w, c.VolumeProfile) })
	}
	if c.Patterns != nil {
		sections = append(sections, func() { Patterns(w, c.Patterns) })
	}
	if c.Stops != nil {
		sections = append(sections, func() { Stops(w, c.Stops) })
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		s()
	}

	if failed := c.FailedSections(); len(failed) > 0 {
		fmt.Fprintln(w, "\nUnavailable sections:")
		for _, name := range failed {
			fmt.Fprintf(w, "- %s: %s\n", name, c.Errors[name])
		}
	}
}

// Error writes a tool failure the way tool output reports it
func Error(w io.Writer, symbol string, err error) {
	fmt.Fprintf(w, "Error analyzing %s: %v\n", symbol, err)
}

func sortedPeriods(periods map[int]model.RSPeriod) []int {
	keys := make([]int, 0, len(periods))
	for p := range periods {
		keys = append(keys, p)
	}
	sort.Ints(keys)
	return keys
}
