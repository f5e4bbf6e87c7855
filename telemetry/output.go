package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gridhaul/config"
	"github.com/pthm-cable/gridhaul/sim"
)

// OutputManager streams per-step agent records to CSV files in an output
// directory.
type OutputManager struct {
	dir         string
	vehicleFile *os.File
	cargoFile   *os.File

	// Track if headers have been written
	vehicleHeaderWritten bool
	cargoHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "vehicles.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating vehicles.csv: %w", err)
	}
	om.vehicleFile = f

	f, err = os.Create(filepath.Join(dir, "cargos.csv"))
	if err != nil {
		om.vehicleFile.Close()
		return nil, fmt.Errorf("creating cargos.csv: %w", err)
	}
	om.cargoFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStep appends one row per agent from the snapshot to the CSV files.
func (om *OutputManager) WriteStep(snap *sim.Snapshot) error {
	if om == nil {
		return nil
	}

	var c Collector
	c.Collect(snap)

	if len(c.vehicles) > 0 {
		if !om.vehicleHeaderWritten {
			// First write includes headers
			if err := gocsv.Marshal(c.vehicles, om.vehicleFile); err != nil {
				return fmt.Errorf("writing vehicles: %w", err)
			}
			om.vehicleHeaderWritten = true
		} else {
			if err := gocsv.MarshalWithoutHeaders(c.vehicles, om.vehicleFile); err != nil {
				return fmt.Errorf("writing vehicles: %w", err)
			}
		}
	}

	if len(c.cargos) > 0 {
		if !om.cargoHeaderWritten {
			if err := gocsv.Marshal(c.cargos, om.cargoFile); err != nil {
				return fmt.Errorf("writing cargos: %w", err)
			}
			om.cargoHeaderWritten = true
		} else {
			if err := gocsv.MarshalWithoutHeaders(c.cargos, om.cargoFile); err != nil {
				return fmt.Errorf("writing cargos: %w", err)
			}
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.vehicleFile != nil {
		if err := om.vehicleFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.cargoFile != nil {
		if err := om.cargoFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
