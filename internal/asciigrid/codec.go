// Package asciigrid encodes and decodes the SFMS raster interchange
// format: an ESRI ASCII grid (ncols/nrows/xllcorner/yllcorner/cellsize/
// NODATA_value header, row-major values north to south) extended with an
// "epsg" header line carrying the CRS, which the stock format omits.
package asciigrid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bcgov/sfms-advisory/internal/geo"
	"github.com/bcgov/sfms-advisory/internal/raster"
)

// header field names; matching is case-insensitive like GDAL's reader.
const (
	keyNCols    = "ncols"
	keyNRows    = "nrows"
	keyXLL      = "xllcorner"
	keyYLL      = "yllcorner"
	keyCellSize = "cellsize"
	keyNoData   = "nodata_value"
	keyEPSG     = "epsg"
)

// Decode reads an extended ASCII grid into a raster grid. Header lines
// may appear in any order but must all precede the first data row.
func Decode(r io.Reader) (*raster.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := map[string]float64{}
	var data []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		if len(data) == 0 && len(fields) == 2 && isHeaderKey(fields[0]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("asciigrid: bad header %q: %w", line, err)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}

		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("asciigrid: bad cell value %q: %w", f, err)
			}
			data = append(data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("asciigrid: read: %w", err)
	}

	for _, k := range []string{keyNCols, keyNRows, keyXLL, keyYLL, keyCellSize, keyEPSG} {
		if _, ok := header[k]; !ok {
			return nil, fmt.Errorf("asciigrid: missing header %q", k)
		}
	}

	width := int(header[keyNCols])
	height := int(header[keyNRows])
	cell := header[keyCellSize]
	if width <= 0 || height <= 0 || cell <= 0 {
		return nil, fmt.Errorf("asciigrid: invalid shape %dx%d cellsize %v", width, height, cell)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("asciigrid: %d values for %dx%d grid", len(data), width, height)
	}

	noData := -9999.0
	if v, ok := header[keyNoData]; ok {
		noData = v
	}

	g := &raster.Grid{
		Width:  width,
		Height: height,
		Transform: raster.Transform{
			OriginX:     header[keyXLL],
			OriginY:     header[keyYLL] + float64(height)*cell,
			PixelWidth:  cell,
			PixelHeight: -cell,
		},
		CRS:    geo.CRS(int(header[keyEPSG])),
		NoData: noData,
		Data:   data,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Encode writes a grid in the extended ASCII grid format. The grid must
// be square-pixel and north-up, which all SFMS exports are.
func Encode(w io.Writer, g *raster.Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	tr := g.Transform
	if tr.RotationX != 0 || tr.RotationY != 0 || tr.PixelHeight >= 0 || tr.PixelWidth != -tr.PixelHeight {
		return fmt.Errorf("asciigrid: only square-pixel north-up grids are encodable")
	}

	bw := bufio.NewWriter(w)
	yll := tr.OriginY + float64(g.Height)*tr.PixelHeight
	fmt.Fprintf(bw, "ncols %d\n", g.Width)
	fmt.Fprintf(bw, "nrows %d\n", g.Height)
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(tr.OriginX))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(yll))
	fmt.Fprintf(bw, "cellsize %s\n", formatFloat(tr.PixelWidth))
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(g.NoData))
	fmt.Fprintf(bw, "epsg %d\n", int(g.CRS))

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatFloat(g.Value(col, row)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func isHeaderKey(s string) bool {
	switch strings.ToLower(s) {
	case keyNCols, keyNRows, keyXLL, keyYLL, keyCellSize, keyNoData, keyEPSG:
		return true
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
