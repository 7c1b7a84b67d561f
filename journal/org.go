package journal

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"text/template"
	"time"
)

// OrgReport renders a run as an org-mode note for the trading journal.
// Undefined metrics print as "n/a"; an infinite profit factor prints "inf".
type OrgReport struct {
	Run         RunRecord
	Trades      []TradeRecord
	Notes       []string
	NextActions []string
}

var orgFuncs = template.FuncMap{
	"num": func(x float64) string { return fmt.Sprintf("%.2f", x) },
	"pct": func(x float64) string { return fmt.Sprintf("%.2f%%", 100*x) },
	"optNum": func(p *float64) string {
		switch {
		case p == nil:
			return "n/a"
		case math.IsInf(*p, 1):
			return "inf"
		default:
			return fmt.Sprintf("%.2f", *p)
		}
	},
	"optPct": func(p *float64) string {
		if p == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.2f%%", 100**p)
	},
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

const orgTemplate = `* BACKTEST: {{.Run.Strategy}} {{.Run.Symbol}}
:PROPERTIES:
:RUN_ID:      {{.Run.RunID}}
:STRATEGY:    {{.Run.Strategy}}
:SYMBOL:      {{.Run.Symbol}}
{{- if .Run.DataPath}}
:DATASET:     {{.Run.DataPath}}
{{- end}}
:START_DATE:  {{.Run.Start.Format "2006-01-02"}}
:END_DATE:    {{.Run.End.Format "2006-01-02"}}
:BARS:        {{.Run.Bars}}
:START_BAL:   {{num .Run.InitialCapital}}
:END_BAL:     {{num .Run.FinalValue}}
:NET_PNL:     {{num .Run.NetPnL}}
:RETURN:      {{pct .Run.TotalReturn}}
:CAGR:        {{optPct .Run.CAGR}}
:VOLATILITY:  {{optNum .Run.Volatility}}
:SHARPE:      {{optNum .Run.Sharpe}}
:MAX_DD:      {{pct .Run.MaxDrawdown}}
:WIN_RATE:    {{optPct .Run.WinRate}}
:PROFIT_FAC:  {{optNum .Run.ProfitFactor}}
:TRADES:      {{.Run.Trades}}
:REJECTIONS:  {{.Run.Rejections}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
{{if .Run.Params}}#+begin_src json
{{printf "%s" .Run.Params}}
#+end_src{{else}}(defaults){{end}}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Run.Wins}} |
| Losses  | {{.Run.Losses}} |
| Total   | {{.Run.Trades}} |
{{- if .Trades}}

** Trades
| Exit Time | Side | Qty | Entry | Exit | PnL |
|-----------+------+-----+-------+------+-----|
{{- range .Trades}}
| {{.ExitTime.Format "2006-01-02"}} | {{.Side}} | {{.Quantity}} | {{num .EntryPrice}} | {{num .ExitPrice}} | {{num .PnL}} |
{{- end}}
{{- end}}
{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
{{- if .NextActions}}

** Next Actions
{{- range .NextActions}}
- [ ] {{.}}
{{- end}}
{{- end}}
`

// Render produces the org-mode block.
func (r OrgReport) Render() (string, error) {
	t, err := template.New("run").Funcs(orgFuncs).Parse(orgTemplate)
	if err != nil {
		return "", fmt.Errorf("journal: parsing org template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("journal: rendering org report: %w", err)
	}
	return buf.String(), nil
}

// WriteFile renders the report and writes it to path.
func (r OrgReport) WriteFile(path string) error {
	s, err := r.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}
