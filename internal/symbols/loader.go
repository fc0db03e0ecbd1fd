package symbols

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"tradelens/pkg/model"
)

// Loader resolves watchlists from universes, explicit lists and files
type Loader struct {
	exchange string
}

// NewLoader creates a new symbol loader. exchange tags the returned stocks
// when nothing more specific is known.
func NewLoader(exchange string) *Loader {
	if exchange == "" {
		exchange = "US"
	}
	return &Loader{exchange: exchange}
}

// LoadUniverse loads a predefined universe
func (l *Loader) LoadUniverse(name string) ([]model.Stock, error) {
	u := Universe(strings.ToLower(strings.TrimSpace(name)))
	syms := GetUniverse(u)
	if syms == nil {
		return nil, fmt.Errorf("unknown universe %q", name)
	}
	exchange := l.exchange
	if u == UniverseCrypto {
		exchange = "CRYPTO"
	}
	return l.stocks(syms, exchange), nil
}

// LoadSymbols loads specific symbols, normalized and de-duplicated
func (l *Loader) LoadSymbols(symbols []string) ([]model.Stock, error) {
	stocks := l.stocks(symbols, l.exchange)
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no valid symbols")
	}
	return stocks, nil
}

// LoadList parses a comma-separated symbol list
func (l *Loader) LoadList(list string) ([]model.Stock, error) {
	return l.LoadSymbols(strings.Split(list, ","))
}

// LoadFile reads one symbol per line; blank lines and # comments are skipped
func (l *Loader) LoadFile(path string) ([]model.Stock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbol file: %w", err)
	}
	defer f.Close()
	return l.LoadReader(f)
}

// LoadReader is LoadFile over any reader
func (l *Loader) LoadReader(r io.Reader) ([]model.Stock, error) {
	var syms []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		syms = append(syms, strings.Fields(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading symbols: %w", err)
	}
	return l.LoadSymbols(syms)
}

// Resolve picks the watchlist: explicit symbols win over the universe
func (l *Loader) Resolve(universe string, symbols []string) ([]model.Stock, error) {
	if len(symbols) > 0 {
		return l.LoadSymbols(symbols)
	}
	return l.LoadUniverse(universe)
}

func (l *Loader) stocks(symbols []string, exchange string) []model.Stock {
	seen := make(map[string]bool, len(symbols))
	stocks := make([]model.Stock, 0, len(symbols))
	for _, sym := range symbols {
		s := strings.ToUpper(strings.TrimSpace(sym))
		if !isValidSymbol(s) || seen[s] {
			continue
		}
		seen[s] = true
		stocks = append(stocks, model.Stock{
			Symbol:   s,
			Name:     s,
			Exchange: exchange,
		})
	}
	return stocks
}

// isValidSymbol checks if a symbol is a plausible ticker: letters and
// digits with an optional class suffix such as BRK.B
func isValidSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 12 {
		return false
	}
	for i, c := range symbol {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case (c == '.' || c == '-') && i > 0 && i < len(symbol)-1:
		default:
			return false
		}
	}
	return true
}
