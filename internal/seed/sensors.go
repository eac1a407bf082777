package seed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"
)

var (
	sensorTypes = []string{"temperature", "humidity", "pressure", "vibration", "light", "motion"}
	locations   = []string{"Factory_Floor_A", "Factory_Floor_B", "Warehouse_North", "Warehouse_South", "Office_Building"}
)

type sensorRange struct {
	unit     string
	low      float64
	high     float64
	generate func(g *generator, hour int) float64
}

var sensorRanges = map[string]sensorRange{
	"temperature": {"°C", 15, 35, func(g *generator, hour int) float64 {
		return 20 + 10*math.Sin(float64(hour-6)*math.Pi/12) + g.rng.NormFloat64()*2
	}},
	"humidity": {"%", 30, 70, func(g *generator, _ int) float64 {
		return math.Max(0, math.Min(100, 45+g.rng.NormFloat64()*15))
	}},
	"pressure": {"hPa", 980, 1050, func(g *generator, _ int) float64 {
		return 1013.25 + g.rng.NormFloat64()*10
	}},
	"vibration": {"m/s²", 0, 2, func(g *generator, _ int) float64 {
		return g.rng.ExpFloat64() * 0.5
	}},
	"light": {"lux", 0, 10000, func(g *generator, hour int) float64 {
		if hour >= 6 && hour <= 18 {
			return math.Exp(8 + g.rng.NormFloat64())
		}
		return math.Exp(4 + g.rng.NormFloat64())
	}},
	"motion": {"motion_units", 0, 1, func(g *generator, _ int) float64 {
		if g.rng.Float64() < 0.1 {
			return g.rng.ExpFloat64() * 0.1
		}
		return 0
	}},
}

type reading struct {
	Timestamp       string  `parquet:"timestamp"`
	SensorID        string  `parquet:"sensor_id,dict"`
	SensorType      string  `parquet:"sensor_type,dict"`
	Location        string  `parquet:"location,dict"`
	Value           float64 `parquet:"value"`
	Unit            string  `parquet:"unit,dict"`
	QualityScore    float64 `parquet:"quality_score"`
	IsAnomaly       bool    `parquet:"is_anomaly"`
	BatteryLevel    float64 `parquet:"battery_level"`
	SignalStrength  float32 `parquet:"signal_strength"`
	FirmwareVersion string  `parquet:"firmware_version,dict"`
}

func (g *generator) readings(n int) []reading {
	start := g.now.AddDate(0, 0, -30)
	out := make([]reading, 0, n)
	for i := 0; i < n; i++ {
		kind := g.pick(sensorTypes)
		location := g.pick(locations)
		r := sensorRanges[kind]

		ts := start.Add(time.Duration(g.rng.IntN(30*24*60)) * time.Minute)
		value := r.generate(g, ts.Hour())
		anomaly := value < r.low || value > r.high
		quality := 0.6 + g.rng.Float64()*0.4
		if anomaly {
			quality = g.rng.Float64() * 0.4
		}

		out = append(out, reading{
			Timestamp:       ts.Format("2006-01-02T15:04:05"),
			SensorID:        fmt.Sprintf("%s_%s_%02d", location, kind, 1+g.rng.IntN(5)),
			SensorType:      kind,
			Location:        location,
			Value:           round(value, 3),
			Unit:            r.unit,
			QualityScore:    round(quality, 3),
			IsAnomaly:       anomaly,
			BatteryLevel:    round(g.between(0.1, 1.0), 3),
			SignalStrength:  float32(round(g.between(-80, -30), 1)),
			FirmwareVersion: fmt.Sprintf("v%d.%d.%d", 1+g.rng.IntN(3), g.rng.IntN(10), g.rng.IntN(10)),
		})
	}
	return out
}

// encodeReadings writes a snappy-compressed Parquet file.
func encodeReadings(rows []reading) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[reading](&buf, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var readingHeader = []string{
	"timestamp", "sensor_id", "sensor_type", "location", "value", "unit",
	"quality_score", "is_anomaly", "battery_level", "signal_strength", "firmware_version",
}

// encodeReadingsCSV writes the readings as zstd-compressed CSV.
func encodeReadingsCSV(rows []reading) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(zw)
	if err := w.Write(readingHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Timestamp, r.SensorID, r.SensorType, r.Location,
			formatFloat(r.Value), r.Unit, formatFloat(r.QualityScore),
			strconv.FormatBool(r.IsAnomaly), formatFloat(r.BatteryLevel),
			strconv.FormatFloat(float64(r.SignalStrength), 'f', 1, 32),
			r.FirmwareVersion,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
