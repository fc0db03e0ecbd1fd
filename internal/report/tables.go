package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"tradelens/internal/analyzer"
	"tradelens/internal/provider"
	"tradelens/internal/recorder"
	"tradelens/internal/scanner"
	"tradelens/internal/service"
)

// Scan writes the watchlist table, strongest relative strength first
func Scan(w io.Writer, res *scanner.ScanResult, benchmark string) {
	if len(res.Snapshots) == 0 {
		fmt.Fprintln(w, "No symbols could be scanned.")
	} else {
		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"Symbol", "Price", ">20", ">50", ">200", "RSI", "MACD", "RS vs " + benchmark, "Rating"}),
		)
		for _, s := range res.Snapshots {
			rs, rating := "-", "-"
			if s.RSScore != nil {
				rs = fmt.Sprintf("%s (%dd)", fixed(*s.RSScore, 0), s.RSPeriod)
				rating = analyzer.RSRating(*s.RSScore)
			}
			table.Append([]string{
				s.Symbol,
				money(s.Price),
				check(s.Trend.AboveSMA20),
				check(s.Trend.AboveSMA50),
				check(s.Trend.AboveSMA200),
				optFixed(s.Trend.RSI, 1),
				check(s.Trend.MACDBullish),
				rs,
				rating,
			})
		}
		table.Render()
	}

	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "\n%d symbols failed:\n", len(res.Failures))
		for _, f := range res.Failures {
			fmt.Fprintf(w, "  %s [%s] %s\n", f.Symbol, f.Kind, f.Error)
		}
	}
	fmt.Fprintf(w, "\nScanned %d symbols in %s\n", res.TotalScanned, res.ScanTime.Round(time.Millisecond))
}

// Runs writes the journal listing
func Runs(w io.Writer, runs []recorder.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "Journal is empty.")
		return
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Time", "Tool", "Symbol", "Duration", "Result"}),
	)
	for _, r := range runs {
		result := "ok"
		if r.ErrKind != "" {
			result = r.ErrKind
		}
		table.Append([]string{
			r.At.Local().Format("2006-01-02 15:04:05"),
			r.Tool,
			r.Symbol,
			r.Duration.Round(time.Millisecond).String(),
			result,
		})
	}
	table.Render()
}

// CacheStatus writes the in-memory cache entries
func CacheStatus(w io.Writer, stats provider.CacheStats) {
	fmt.Fprintf(w, "Cache TTL: %s, %d live entries\n", stats.TTL, len(stats.Entries))
	if len(stats.Entries) == 0 {
		return
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Key", "Rows", "Age", "Expires In"}),
	)
	for _, e := range stats.Entries {
		table.Append([]string{
			e.Key,
			fmt.Sprintf("%d", e.Rows),
			e.Age.Round(time.Second).String(),
			e.ExpiresIn.Round(time.Second).String(),
		})
	}
	table.Render()
}

// History writes a raw candle table
func History(w io.Writer, h *service.HistoryResult) {
	fmt.Fprintf(w, "%s daily bars, last %d days:\n\n", h.Symbol, h.Days)
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Date", "Open", "High", "Low", "Close", "Volume"}),
	)
	for _, c := range h.Candles {
		table.Append([]string{
			c.Time.Format("2006-01-02"),
			fixed(c.Open, 2),
			fixed(c.High, 2),
			fixed(c.Low, 2),
			fixed(c.Close, 2),
			fixed(c.Volume, 0),
		})
	}
	table.Render()
}

// Trends writes journaled trend snapshots for one symbol, newest first
func Trends(w io.Writer, symbol string, snaps []recorder.TrendSnapshot) {
	if len(snaps) == 0 {
		fmt.Fprintf(w, "No trend snapshots recorded for %s.\n", symbol)
		return
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Time", "Price", ">50", ">200", "RSI", "RS"}),
	)
	for _, s := range snaps {
		table.Append([]string{
			s.At.Local().Format("2006-01-02 15:04"),
			money(s.Price),
			check(s.AboveSMA50),
			check(s.AboveSMA200),
			optFixed(s.RSI, 1),
			optFixed(s.RSScore, 0),
		})
	}
	table.Render()
}
