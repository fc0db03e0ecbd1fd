package symbols

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadUniverse(t *testing.T) {
	l := NewLoader("")

	for _, u := range Universes() {
		stocks, err := l.LoadUniverse(string(u))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", u, err)
		}
		if len(stocks) == 0 {
			t.Errorf("%s: expected symbols", u)
		}
	}

	crypto, _ := l.LoadUniverse("Crypto")
	if crypto[0].Exchange != "CRYPTO" {
		t.Errorf("Expected CRYPTO exchange, got %s", crypto[0].Exchange)
	}

	if _, err := l.LoadUniverse("nyse-everything"); err == nil {
		t.Error("Expected error for unknown universe")
	}
}

func TestLoadList(t *testing.T) {
	l := NewLoader("US")

	stocks, err := l.LoadList(" aapl, MSFT,,brk.b, aapl ,$$$")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var got []string
	for _, s := range stocks {
		got = append(got, s.Symbol)
	}
	if strings.Join(got, ",") != "AAPL,MSFT,BRK.B" {
		t.Errorf("Unexpected symbols %v", got)
	}

	if _, err := l.LoadList(" , "); err == nil {
		t.Error("Expected error for empty list")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.txt")
	content := "# core\nAAPL\nnvda  # chips\n\nSPY QQQ\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	stocks, err := NewLoader("").LoadFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(stocks) != 4 || stocks[1].Symbol != "NVDA" || stocks[3].Symbol != "QQQ" {
		t.Errorf("Unexpected stocks %+v", stocks)
	}
}

func TestResolve(t *testing.T) {
	l := NewLoader("")

	stocks, err := l.Resolve("megacap", []string{"KO"})
	if err != nil || len(stocks) != 1 || stocks[0].Symbol != "KO" {
		t.Errorf("Explicit symbols should win, got %+v (%v)", stocks, err)
	}

	stocks, err = l.Resolve("test", nil)
	if err != nil || len(stocks) != len(TestSymbols) {
		t.Errorf("Expected the test universe, got %+v (%v)", stocks, err)
	}
}

func TestIsValidSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"AAPL", true},
		{"BRK.B", true},
		{"BTCUSDT", true},
		{"", false},
		{".A", false},
		{"A.", false},
		{"AB CD", false},
		{"aapl", false},
	}
	for _, tt := range tests {
		if got := isValidSymbol(tt.symbol); got != tt.want {
			t.Errorf("isValidSymbol(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}
