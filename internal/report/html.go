package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	apperrors "github.com/kugelfisch1984/mexc-report/internal/errors"
	"github.com/kugelfisch1984/mexc-report/internal/models"
	"github.com/kugelfisch1984/mexc-report/internal/pnl"
)

// dashboardData is the payload embedded in the page. Series are
// column-oriented so the chart code can hand them to Plotly unchanged;
// the currency dropdown converts on the client from the single rate.
type dashboardData struct {
	PnL     columns                  `json:"pnl"`
	Equity  equityColumns            `json:"equity"`
	EqNow   float64                  `json:"eq_now_usdt"`
	EURRate float64                  `json:"eurusd"`
	Copy    []models.NormalizedTrade `json:"copy"`
	Summary models.Summary           `json:"summary"`
	Days    int                      `json:"days"`
	Status  models.SnapshotStatus    `json:"status"`
}

type columns struct {
	Date []string  `json:"date"`
	PnL  []float64 `json:"pnl_usdt"`
}

type equityColumns struct {
	Date   []string  `json:"date"`
	Equity []float64 `json:"equity_usdt"`
}

func (r *Renderer) writeHTML(snapshot *models.Snapshot, path string) error {
	data := dashboardData{
		PnL:     columns{Date: []string{}, PnL: []float64{}},
		Equity:  equityColumns{Date: []string{}, Equity: []float64{}},
		EqNow:   snapshot.EquityUSDT,
		EURRate: snapshot.EURPerUSD,
		Copy:    pnl.FilterCopyTrades(snapshot.Trades),
		Summary: snapshot.Summary,
		Days:    snapshot.Days,
		Status:  snapshot.Status,
	}
	for _, d := range snapshot.Daily {
		data.PnL.Date = append(data.PnL.Date, d.Date)
		data.PnL.PnL = append(data.PnL.PnL, d.PnLUSDT)
	}
	for _, p := range snapshot.Equity {
		data.Equity.Date = append(data.Equity.Date, p.Date)
		data.Equity.Equity = append(data.Equity.Equity, p.EquityUSDT)
	}
	if data.Copy == nil {
		data.Copy = []models.NormalizedTrade{}
	}

	blob, err := json.Marshal(data)
	if err != nil {
		return apperrors.NewRenderError("html", "encoding chart data", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewRenderError("html", fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	ctx := struct {
		Data template.JS
		Days int
	}{Data: template.JS(blob), Days: snapshot.Days}

	if err := dashboardTmpl.Execute(f, ctx); err != nil {
		return apperrors.NewRenderError("html", fmt.Sprintf("rendering %s", path), err)
	}
	return nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8"/>
<title>MEXC Dashboard</title>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,"Helvetica Neue",Arial,sans-serif;margin:24px;}
h1,h2,h3{margin:0 0 8px 0;}
.card{border:1px solid #e5e7eb;border-radius:12px;padding:16px;margin:12px 0;box-shadow:0 1px 3px rgba(0,0,0,0.03)}
.row{display:flex;gap:12px;flex-wrap:wrap}
.col{flex:1 1 320px}
.badge{display:inline-block;padding:4px 8px;border-radius:999px;background:#eef2ff;color:#1e40af;font-weight:600}
.warn{background:#fef3c7;color:#92400e}
table{border-collapse:collapse;width:100%}
th,td{border-bottom:1px solid #eee;padding:8px;text-align:left;font-size:14px}
select{padding:6px 10px;border:1px solid #ddd;border-radius:8px}
.mono{font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,"Liberation Mono","Courier New",monospace}
</style>
</head>
<body>
<h1>&#128202; MEXC Dashboard</h1>
<div class="row">
  <div class="card col">
    <div class="badge">Summary</div>
    <span id="statusbadge"></span>
    <div id="summary"></div>
    <div style="margin-top:8px">
      &#128177; Currency:
      <select id="currency">
        <option value="USDT">USDT</option>
        <option value="EUR">EUR</option>
      </select>
    </div>
  </div>
</div>

<div class="row">
  <div class="card col">
    <h3>Equity curve</h3>
    <div id="equity"></div>
  </div>
  <div class="card col">
    <h3>Daily PnL</h3>
    <div id="pnl"></div>
  </div>
</div>

<div class="card">
  <h3>Copy trades</h3>
  <div id="copytable"></div>
  <div style="font-size:12px;color:#6b7280;margin-top:6px">
    Copy trades are detected from trade metadata (traderId/strategyId in the API response).
    When the venue omits these fields for a segment, the table stays empty.
  </div>
</div>

<script>
const DATA = {{.Data}};
const DAYS = {{.Days}};

function fmt(n, cur) {
  if (cur==="EUR") return new Intl.NumberFormat('de-DE', { style:'currency', currency:'EUR' }).format(n);
  return new Intl.NumberFormat('en-US', { maximumFractionDigits: 2 }).format(n) + " USDT";
}

function renderSummary(cur) {
  const s = DATA.summary;
  const eq = (cur==="EUR") ? s.eq_now_eur : s.eq_now_usdt;
  const pnl = (cur==="EUR") ? s.total_pnl_eur : s.total_pnl_usdt;
  const html = ` + "`" + `
    <div>Balance: <b>${fmt(eq, cur)}</b></div>
    <div>Total PnL (${DAYS} days): <b>${fmt(pnl, cur)}</b></div>
    <div>ROI (simple): <b>${s.roi_pct}</b></div>
  ` + "`" + `;
  document.getElementById("summary").innerHTML = html;
  if (DATA.status !== "ok") {
    document.getElementById("statusbadge").innerHTML =
      '<span class="badge warn">' + DATA.status + '</span>';
  }
}

function renderEquity(cur) {
  const eq = DATA.equity;
  if (!eq.date || eq.date.length===0) {
    document.getElementById("equity").innerHTML = "<i>No data</i>"; return;
  }
  const y = (cur==="EUR") ? eq.equity_usdt.map(v => v * DATA.eurusd) : eq.equity_usdt;
  const fig = {
    data: [{ x: eq.date, y: y, mode:'lines', name:'Equity' }],
    layout: { margin:{l:40,r:20,t:10,b:60}, xaxis:{tickangle:45}, yaxis:{title:cur} }
  };
  Plotly.newPlot('equity', fig.data, fig.layout, {displayModeBar:false});
}

function renderPnL(cur) {
  const p = DATA.pnl;
  if (!p.date || p.date.length===0) {
    document.getElementById("pnl").innerHTML = "<i>No data</i>"; return;
  }
  const y = (cur==="EUR") ? p.pnl_usdt.map(v => v * DATA.eurusd) : p.pnl_usdt;
  const fig = {
    data: [{ x: p.date, y: y, type:'bar', name:'PnL' }],
    layout: { margin:{l:40,r:20,t:10,b:60}, xaxis:{tickangle:45}, yaxis:{title:cur} }
  };
  Plotly.newPlot('pnl', fig.data, fig.layout, {displayModeBar:false});
}

function renderCopy() {
  const rows = DATA.copy || [];
  if (rows.length===0) {
    document.getElementById("copytable").innerHTML = "<i>No copy-trade metadata found.</i>";
    return;
  }
  const by = {};
  rows.forEach(r => {
    const k = r.copy_trader || "(unknown)";
    if (!by[k]) by[k] = { count:0, pnl:0 };
    const sign = (r.side==='sell') ? +1 : -1;
    let cash = (r.cost||0) * sign;
    if ((r.fee_ccy||'').toUpperCase()==='USDT') cash -= (r.fee_cost||0);
    by[k].count++;
    by[k].pnl += cash;
  });
  const keys = Object.keys(by).sort((a,b)=>by[b].pnl - by[a].pnl);
  let html = "<table><thead><tr><th>Trader</th><th>Trades</th><th>PnL (USDT)</th></tr></thead><tbody>";
  keys.forEach(k => {
    html += ` + "`" + `<tr><td>${k}</td><td>${by[k].count}</td><td class="mono">${by[k].pnl.toFixed(2)}</td></tr>` + "`" + `;
  });
  html += "</tbody></table>";
  document.getElementById("copytable").innerHTML = html;
}

function renderAll() {
  const cur = document.getElementById("currency").value;
  renderSummary(cur);
  renderEquity(cur);
  renderPnL(cur);
  renderCopy();
}

document.getElementById("currency").addEventListener("change", renderAll);
renderAll();
</script>

</body>
</html>
`))
