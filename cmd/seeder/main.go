// Seeder generates synthetic instrumentation logs for local testing: text
// logs in the quoted label/value block format and JSON logs in the
// structured format, both parseable by the ingestion pipeline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	outDir   = flag.String("out", "./seed_logs", "directory to write generated logs into")
	fileNum  = flag.Int("files", 4, "number of log files to generate")
	sections = flag.Int("sections", 6, "number of sensor sections per file")
	seed     = flag.Int64("seed", 0, "random seed (0 = time-based)")
)

var sensors = []struct {
	name     string
	units    string
	category string
	min, max float64
}{
	{"PSU rail 3V3", "Volts", "power", 3.25, 3.37},
	{"PSU rail 5V0", "Volts", "power", 4.9, 5.1},
	{"PSU rail 12V", "Volts", "power", 11.8, 12.2},
	{"CPU package power", "Watts", "power", 8.0, 42.0},
	{"thermal zone 0", "Celsius", "thermal", 31.0, 78.0},
	{"thermal zone 1", "Celsius", "thermal", 29.0, 71.0},
	{"fan tach 1", "RPM", "cooling", 900, 2400},
	{"ambient humidity", "Percent", "environment", 30, 55},
}

var statuses = []string{"passed", "passed", "passed", "failed", "marginal"}

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}

	for i := 0; i < *fileNum; i++ {
		var data []byte
		var name string
		if i%2 == 0 {
			data = textLog(rng, *sections)
			name = fmt.Sprintf("run-%03d.log", i)
		} else {
			data = jsonLog(rng, *sections)
			name = fmt.Sprintf("run-%03d.json", i)
		}

		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			panic(err)
		}
		fmt.Printf("wrote %s\n", path)
	}
}

func readings(rng *rand.Rand, min, max float64) []float64 {
	n := 3 + rng.Intn(8)
	values := make([]float64, n)
	for i := range values {
		values[i] = min + rng.Float64()*(max-min)
	}
	return values
}

func textLog(rng *rand.Rand, n int) []byte {
	var b strings.Builder
	for i := 0; i < n; i++ {
		sensor := sensors[rng.Intn(len(sensors))]
		values := readings(rng, sensor.min, sensor.max)

		fmt.Fprintf(&b, "Section %d \"Description\" \"%s measurements for %s\"", i+1, sensor.category, sensor.name)
		fmt.Fprintf(&b, " \"Units\" \"%s\"", sensor.units)
		fmt.Fprintf(&b, " \"Serial Number\" \"SN-%04d\"", rng.Intn(10000))
		fmt.Fprintf(&b, " \"Status\" \"%s\"\n", statuses[rng.Intn(len(statuses))])

		b.WriteString("Values:")
		for j, v := range values {
			fmt.Fprintf(&b, " %d %.4f", j+1, v)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "Total measurements: %d\n\n", len(values))
	}
	return []byte(b.String())
}

func jsonLog(rng *rand.Rand, n int) []byte {
	entries := make([]map[string]any, n)
	for i := range entries {
		sensor := sensors[rng.Intn(len(sensors))]
		values := readings(rng, sensor.min, sensor.max)

		entries[i] = map[string]any{
			"description": fmt.Sprintf("%s measurements for %s", sensor.category, sensor.name),
			"measurements": map[string]any{
				"values": values,
				"units":  sensor.units,
			},
			"metadata": map[string]any{
				"sensor name":   sensor.name,
				"category":      sensor.category,
				"serial number": fmt.Sprintf("SN-%04d", rng.Intn(10000)),
				"status":        statuses[rng.Intn(len(statuses))],
				"tst_id":        time.Now().UTC().Format(time.RFC3339),
			},
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}
