package drift

import (
	"fmt"
	"strings"
)

// AlertHTML builds the drift alert email body as a simple HTML table.
func AlertHTML(portfolioName string, drifts []Report, threshold float64) string {
	var rows strings.Builder
	for _, d := range drifts {
		rows.WriteString(fmt.Sprintf(`
        <tr>
          <td>%s</td>
          <td>%s</td>
          <td>%s</td>
          <td>%s</td>
        </tr>`, d.Symbol, d.Actual, d.Target, d.Deviation))
	}

	return fmt.Sprintf(`
    <h2>Portfolio %s drift alert</h2>
    <p>Your portfolio weights deviate from their targets by more than <b>%.1f%%</b>.</p>
    <table border="1" cellspacing="0" cellpadding="5">
      <tr><th>Symbol</th><th>Actual</th><th>Target</th><th>Deviation</th></tr>%s
    </table>
    <p style="margin-top:10px;">Consider rebalancing or adjusting your positions.</p>
  `, portfolioName, threshold*100, rows.String())
}
