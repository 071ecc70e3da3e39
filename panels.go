package main

import (
	"bytes"
	"errors"
	"github.com/CodedInternet/vehicledash/calcs"
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/CodedInternet/vehicledash/dashboard"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"math"
	"net/http"
)

type StatsPayload struct {
	Applied uint64 `json:"applied"`
	Dropped uint64 `json:"dropped"`
	Views   int    `json:"views"`
}

// renderPanelError maps dashboard errors onto HTTP responses.
func renderPanelError(w http.ResponseWriter, r *http.Request, err error) {
	var unknown dashboard.UnknownPanelError
	if errors.As(err, &unknown) {
		render.Render(w, r, newErrResponse(err, http.StatusNotFound))
		return
	}
	render.Render(w, r, ErrUnavailable(err))
}

// PanelsHandler lists the panels in layout order.
func PanelsHandler(c *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var panels []dashboard.PanelInfo
		err := c.Do(r.Context(), func(d *dashboard.Dashboard) {
			panels = d.Panels()
		})
		if err != nil {
			renderPanelError(w, r, err)
			return
		}
		render.JSON(w, r, panels)
	}
}

// PanelSVGHandler serves the current state of one panel as an SVG document.
func PanelSVGHandler(c *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		var buf bytes.Buffer
		var renderErr error
		err := c.Do(r.Context(), func(d *dashboard.Dashboard) {
			renderErr = d.Render(name, &buf)
		})
		if err == nil {
			err = renderErr
		}
		if err != nil {
			renderPanelError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(buf.Bytes())
	}
}

// CalibrationHandler returns the last calibration status seen.
func CalibrationHandler(c *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status telemetry.CalibrationStatus
		var ok bool
		err := c.Do(r.Context(), func(d *dashboard.Dashboard) {
			status, ok = d.Calibration()
		})
		if err != nil {
			renderPanelError(w, r, err)
			return
		}
		if !ok {
			render.Render(w, r, ErrNotFound)
			return
		}
		render.JSON(w, r, status.Lines())
	}
}

func StatsHandler(c *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied, dropped := c.Stats()
		render.JSON(w, r, StatsPayload{
			Applied: applied,
			Dropped: dropped,
			Views:   c.Hub().Len(),
		})
	}
}

// LidarChartHandler plots the buffered returns of a lidar panel, named by
// the panel query parameter, as an echarts scatter page.
func LidarChartHandler(c *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("panel")
		var points []telemetry.RangeBearing
		var domain float64
		var lookupErr error
		err := c.Do(r.Context(), func(d *dashboard.Dashboard) {
			if name == "" {
				name = firstLidar(d.Panels())
			}
			p, err := d.Panel(name)
			if err != nil {
				lookupErr = err
				return
			}
			if p.Lidar == nil {
				lookupErr = dashboard.UnknownPanelError{Name: name}
				return
			}
			points = p.Lidar.Snapshot()
			domain = p.Lidar.DomainMax()
		})
		if err == nil {
			err = lookupErr
		}
		if err != nil {
			renderPanelError(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := lidarChart(name, points, domain).Render(&buf); err != nil {
			render.Render(w, r, ErrRender(err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

func firstLidar(panels []dashboard.PanelInfo) string {
	for _, p := range panels {
		if p.Kind == dashboard.KindLidar {
			return p.Name
		}
	}
	return ""
}

func lidarChart(name string, points []telemetry.RangeBearing, domain float64) *charts.Scatter {
	extent := math.Ceil(domain)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Lidar " + name,
			Theme:     "dark",
			Width:     "800px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Lidar returns",
			Subtitle: name,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         "x",
			NameLocation: "middle",
			NameGap:      25,
			Min:          -extent,
			Max:          extent,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         "y",
			NameLocation: "middle",
			NameGap:      35,
			Min:          -extent,
			Max:          extent,
		}),
	)

	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		if p.Range == 0 {
			continue
		}
		v := calcs.Cartesian(p)
		data = append(data, opts.ScatterData{Value: []interface{}{v.X(), v.Y()}})
	}
	scatter.AddSeries("returns", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}),
	)

	if centre, ok := calcs.Centroid(points); ok {
		scatter.AddSeries("centroid", []opts.ScatterData{{Value: []interface{}{centre.X(), centre.Y()}}},
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#40c4ff"}),
		)
	}
	return scatter
}
