// Command genraster writes a synthetic set of SFMS rasters and a
// matching trigger message for local development and test fixtures. It
// lays the files out under an output directory using the same key
// scheme the service derives from a run identity, so the directory can
// be served directly as a mock object store.
//
// Usage:
//
//	go run ./cmd/genraster \
//	  -out data/mock \
//	  -run-type forecast \
//	  -run-datetime 2024-08-15T17:00:00Z \
//	  -for-date 2024-08-16
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/bcgov/sfms-advisory/internal/asciigrid"
	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/geo"
	"github.com/bcgov/sfms-advisory/internal/pipeline"
	"github.com/bcgov/sfms-advisory/internal/raster"
)

const (
	gridSize  = 64
	pixelSize = 2000.0
	originX   = 1_200_000.0 // central BC in BC Albers
	originY   = 900_000.0
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory (served as the mock object store root)")
	prefix := flag.String("prefix", "sfms/uploads", "object key prefix")
	runType := flag.String("run-type", "forecast", "run type: forecast or actual")
	runDatetime := flag.String("run-datetime", "", "run datetime, RFC3339")
	forDate := flag.String("for-date", "", "for-date, YYYY-MM-DD")
	withSnow := flag.Bool("snow", false, "also write a snow mask")
	flag.Parse()

	if *out == "" || *runDatetime == "" || *forDate == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -run-datetime, -for-date")
	}

	trigger := domain.RunTrigger{RunType: *runType, ForDate: *forDate}
	dt, err := time.Parse(time.RFC3339, *runDatetime)
	if err != nil {
		return fmt.Errorf("invalid -run-datetime: %w", err)
	}
	trigger.RunDatetime = dt

	identity, err := trigger.Identity()
	if err != nil {
		return err
	}
	keys := pipeline.DeriveKeys(*prefix, identity)

	if err := writeGrid(*out, keys.HFI, hfiGrid()); err != nil {
		return err
	}
	if err := writeGrid(*out, keys.FuelType, fuelGrid()); err != nil {
		return err
	}
	if err := writeGrid(*out, keys.Elevation, demGrid()); err != nil {
		return err
	}
	if err := writeGrid(*out, keys.TPI, tpiGrid()); err != nil {
		return err
	}
	if *withSnow {
		if err := writeGrid(*out, keys.Snow, snowGrid()); err != nil {
			return err
		}
	}

	triggerPath := filepath.Join(*out, "trigger.json")
	if err := writeJSON(triggerPath, trigger); err != nil {
		return err
	}
	log.Printf("wrote trigger: %s", triggerPath)
	return nil
}

func baseGrid() *raster.Grid {
	return raster.New(gridSize, gridSize, raster.Transform{
		OriginX: originX, PixelWidth: pixelSize,
		OriginY: originY, PixelHeight: -pixelSize,
	}, geo.EPSG3005, -9999)
}

// hfiGrid ramps intensity from the northwest corner outward so every
// threshold band appears, with a nodata hole in the middle.
func hfiGrid() *raster.Grid {
	g := baseGrid()
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			d := math.Hypot(float64(col), float64(row))
			g.SetValue(col, row, d*250)
		}
	}
	for row := 30; row < 34; row++ {
		for col := 30; col < 34; col++ {
			g.SetValue(col, row, g.NoData)
		}
	}
	return g
}

// fuelGrid stripes combustible FBP codes with non-fuel breaks.
func fuelGrid() *raster.Grid {
	g := baseGrid()
	codes := []float64{2, 3, 5, 7, 12, 99}
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			g.SetValue(col, row, codes[(col/8)%len(codes)])
		}
	}
	return g
}

// demGrid is a tilted plane from 400 m to about 1900 m.
func demGrid() *raster.Grid {
	g := baseGrid()
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			g.SetValue(col, row, 400+float64(col+row)*12)
		}
	}
	return g
}

// tpiGrid bands the terrain classes by elevation thirds of the plane.
func tpiGrid() *raster.Grid {
	g := baseGrid()
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			switch {
			case col+row < 42:
				g.SetValue(col, row, domain.TPIValleyBottom)
			case col+row < 84:
				g.SetValue(col, row, domain.TPIMidSlope)
			default:
				g.SetValue(col, row, domain.TPIUpperSlope)
			}
		}
	}
	return g
}

// snowGrid blanks the top rows as snow-covered.
func snowGrid() *raster.Grid {
	g := baseGrid()
	for row := 0; row < gridSize; row++ {
		v := 1.0
		if row < 8 {
			v = 0
		}
		for col := 0; col < gridSize; col++ {
			g.SetValue(col, row, v)
		}
	}
	return g
}

func writeGrid(root, key string, g *raster.Grid) error {
	path := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := asciigrid.Encode(f, g); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", key, err)
	}
	log.Printf("wrote raster: %s", path)
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
