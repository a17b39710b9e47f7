package monitor

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/roverlab/robogym/internal/httputil"
)

// handleReturnsChart renders a line chart (HTML) of episode returns using
// go-echarts. This is a debugging view for watching whether the agent is
// actually improving; the JSON endpoints carry the same data for tooling.
func (ws *WebServer) handleReturnsChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	episodes, err := ws.store.Episodes(ws.experiment)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if len(episodes) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "no finished episodes yet")
		return
	}

	xs := make([]string, len(episodes))
	returns := make([]opts.LineData, len(episodes))
	steps := make([]opts.LineData, len(episodes))
	for i, e := range episodes {
		xs[i] = fmt.Sprintf("%d", e.ID)
		returns[i] = opts.LineData{Value: e.Return}
		steps[i] = opts.LineData{Value: e.Steps}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Episode returns",
			Subtitle: ws.experiment,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xs).
		AddSeries("return", returns).
		AddSeries("steps", steps)

	if err := line.Render(w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render failed: %v", err))
	}
}
