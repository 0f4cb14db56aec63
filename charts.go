package main

import (
	"bytes"
	"runtime"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

func createLineChart(seriesName string, data []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemePurplePassion}),
	)
	items := make([]opts.LineData, 0)
	xAxis := []string{}
	smoothLine := opts.LineChart{Smooth: opts.Bool(true)}
	for i := 0; i < len(data); i++ {
		xAxis = append(xAxis, strconv.Itoa(i))
		items = append(items, opts.LineData{Value: data[i]})
	}

	line.SetXAxis(xAxis).
		AddSeries(seriesName, items).
		SetSeriesOptions(charts.WithLineChartOpts(smoothLine))
	return line
}

// UpdateCharts refreshes the cached dashboard: the risk trend across the
// stored history plus a handful of runtime stats.
func (s *Server) UpdateCharts() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	history, err := s.DB.GetHistory()
	if err != nil {
		s.Log.Println("UpdateCharts: history unavailable:", err)
		history = nil
	}
	// history is newest first; chart oldest to newest
	risks := make([]float64, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		top := 0
		for _, c := range history[i].Result {
			if c.RiskScore > top {
				top = c.RiskScore
			}
		}
		risks = append(risks, float64(top))
	}

	s.Memory.Lock()
	defer s.Memory.Unlock()
	s.Details.Stats["heap"] = float64(m.HeapAlloc) / 1024
	s.Details.Stats["goroutines"] = float64(runtime.NumGoroutine())
	s.Details.Stats["total_alloc"] = float64(m.TotalAlloc) / 1024

	var buf bytes.Buffer
	chart := createLineChart("risk_score", risks)
	snippet := chart.RenderSnippet()
	buf.Write([]byte(snippet.Element))
	buf.Write([]byte(snippet.Script))
	s.Cache.Charts = buf.Bytes()
}
