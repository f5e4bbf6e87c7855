package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zip"

	"github.com/pthm-cable/gridhaul/config"
)

// Manifest describes the contents of a run archive.
type Manifest struct {
	Generated time.Time         `json:"generated"`
	Saved     time.Time         `json:"saved"`
	Seed      int64             `json:"seed"`
	Steps     int               `json:"steps"`
	Files     map[string]string `json:"files"`
}

// WriteArchive bundles the configuration, the collected agent tables and a
// manifest into a single zip file. generated is when the world was built;
// the save timestamp is taken at call time.
func WriteArchive(path string, cfg *config.Config, c *Collector, seed int64, steps int, generated time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	cfgData, err := cfg.YAML()
	if err != nil {
		return err
	}
	if err := writeEntry(zw, "configuration.yaml", cfgData); err != nil {
		return err
	}

	files := map[string]string{
		"configuration.yaml": "run configuration, including the effective seed",
	}

	// Agent tables are included only when rows exist.
	if rows := c.VehicleRows(); len(rows) > 0 {
		data, err := gocsv.MarshalString(rows)
		if err != nil {
			return fmt.Errorf("marshaling vehicle rows: %w", err)
		}
		if err := writeEntry(zw, "vehicles.csv", []byte(data)); err != nil {
			return err
		}
		files["vehicles.csv"] = "per-step vehicle positions, headings, energy and load"
	}
	if rows := c.CargoRows(); len(rows) > 0 {
		data, err := gocsv.MarshalString(rows)
		if err != nil {
			return fmt.Errorf("marshaling cargo rows: %w", err)
		}
		if err := writeEntry(zw, "cargos.csv", []byte(data)); err != nil {
			return err
		}
		files["cargos.csv"] = "per-step cargo positions, destinations and carried state"
	}

	manifest := Manifest{
		Generated: generated,
		Saved:     time.Now().UTC(),
		Seed:      seed,
		Steps:     steps,
		Files:     files,
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := writeEntry(zw, "manifest.json", manifestData); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", name, err)
	}
	return nil
}
