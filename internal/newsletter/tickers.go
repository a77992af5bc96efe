package newsletter

import (
	"regexp"
	"sort"
)

// tickerUniverse is the known stock symbol table. Only symbols listed
// here are ever written to the mentioned-companies column.
var tickerUniverse = makeSet(
	"AAPL", "MSFT", "GOOGL", "GOOG", "AMZN", "META", "TSLA", "NFLX", "NVDA", "AMD", "INTC",
	"TSM", "ASML", "AVGO", "QCOM", "AMAT", "LRCX", "KLAC", "MRVL", "ADI", "NXPI",
	"TXN", "MCHP", "TER", "SNPS", "CDNS", "ARM", "SWKS", "MPWR",
	"COHR", "LITE", "CIEN", "ANET", "CSCO", "KEYS", "FFIV", "JNPR",
	"SMCI", "DELL", "HPE", "HPQ", "IBM", "NTAP", "WDC", "STX",
	"CRM", "ORCL", "NOW", "SNOW", "PLTR", "PATH", "WDAY", "ADBE", "INTU", "PANW", "CRWD",
	"FTNT", "NET", "MDB", "DDOG", "TEAM", "VEEV", "AKAM", "EPAM", "CTSH",
	"ACN", "GDDY", "VRSN", "CSGP", "MSCI", "FICO", "PAYC", "PAYX", "ADP",
	"FDS", "JKHY", "FIS", "FISV", "GPN", "CPAY",
	"APP", "UBER", "ABNB", "BKNG", "EXPE", "DASH", "EBAY", "ETSY", "PYPL", "COIN",
	"HOOD", "TTD", "ROKU", "SPOT", "PINS", "SNAP", "MTCH", "TTWO", "RBLX",
	"BABA", "PDD", "BIDU", "NIO", "XPEV", "BILI", "TME", "NTES",
	"RIVN", "LCID", "APTV",
	"LLY", "UNH", "JNJ", "MRK", "ABBV", "PFE", "BMY", "AMGN", "GILD", "VRTX", "REGN",
	"JPM", "BAC", "WFC", "BLK", "KKR", "APO", "ARES", "SCHW",
	"GEV", "HON", "CAT", "RTX", "LMT", "NOC", "LHX", "HII",
	"XOM", "CVX", "COP", "OXY", "EOG", "DVN", "FANG", "MPC", "VLO", "PSX", "SLB",
	"NEE", "DUK", "AEP", "EXC", "SRE", "PCG", "XEL", "WEC", "VST", "CEG",
	"LIN", "APD", "SHW", "ECL", "DOW", "PPG", "NUE", "STLD", "VMC", "MLM",
	"KO", "PEP", "COST", "WMT", "TGT", "LOW", "DLTR",
	"AMT", "CCI", "SBAC", "PLD", "EQIX", "DLR", "PSA", "EXR", "SPG", "VICI",
	"DIS", "CMCSA", "CHTR", "WBD", "PARA", "FOX", "FOXA", "NWS", "NWSA", "LYV", "TKO",
)

// excludedSymbols are uppercase tokens that look like tickers but are
// finance/tech jargon.
var excludedSymbols = makeSet(
	"CEO", "CFO", "COO", "CTO", "IPO", "GDP", "CPI", "PPI",
	"ETF", "USD", "EUR", "JPY", "GBP", "CNY", "API", "AI",
	"YTD", "QOQ", "YOY", "MOM", "BPS", "EPS", "ROE", "ROA",
	"SEC", "FED", "ECB", "BOJ", "PMI", "ISM", "FOMC",
	"BUY", "SELL", "HOLD", "NEW", "THE", "AND", "FOR",
	"GPU", "CPU", "TPU", "RAM", "SSD", "LLM", "NLP",
	"OIL", "GAS", "GOLD", "COAL", "CES", "USA", "UK", "EU",
)

var (
	dollarTicker   = regexp.MustCompile(`\$([A-Z]{2,6})\b`)
	researchTicker = regexp.MustCompile(`Research\|([A-Z]{2,6}):`)
)

// ExtractTickers finds known stock symbols mentioned in the subject and
// HTML body. Only $-prefixed symbols from the known universe count, plus
// the Research|TICKER: subject form.
func ExtractTickers(subject, htmlContent string) []string {
	found := make(map[string]struct{})

	for _, m := range dollarTicker.FindAllStringSubmatch(subject+" "+htmlContent, -1) {
		ticker := m[1]
		if _, excluded := excludedSymbols[ticker]; excluded {
			continue
		}
		if _, known := tickerUniverse[ticker]; known {
			found[ticker] = struct{}{}
		}
	}

	if m := researchTicker.FindStringSubmatch(subject); m != nil {
		if _, excluded := excludedSymbols[m[1]]; !excluded {
			found[m[1]] = struct{}{}
		}
	}

	tickers := make([]string, 0, len(found))
	for t := range found {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

func makeSet(symbols ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return set
}
