package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

type ExportData struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Mode       string             `json:"mode"`
	Integrator string             `json:"integrator"`
	DynRate    float64            `json:"dyn_rate"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Columns    []string           `json:"columns"`
	Times      []float64          `json:"times"`
	Rows       [][]float64        `json:"rows"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a run and its telemetry as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, tel Table) error {
	data := ExportData{
		ID:         meta.ID,
		Scenario:   meta.Scenario,
		Mode:       meta.Mode,
		Integrator: meta.Integrator,
		DynRate:    meta.DynRate,
		Duration:   meta.Duration,
		Steps:      len(tel.Times),
		Columns:    tel.Columns,
		Times:      tel.Times,
		Rows:       tel.Rows,
		Metrics:    meta.Metrics,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV writes a header of "time" plus the columns, then one row per
// sample.
func WriteCSV(w io.Writer, tel Table) error {
	cw := csv.NewWriter(w)
	header := append([]string{"time"}, tel.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range tel.Rows {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.FormatFloat(tel.Times[i], 'f', 6, 64))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
