package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/piwi3910/floorpack/internal/model"
)

// WritePositions writes one "id\tx\ty\trot" line per placement, in the
// order given. rot is 1 for a rotated module and 0 otherwise.
func WritePositions(w io.Writer, placements []model.Placement) error {
	bw := bufio.NewWriter(w)
	for _, p := range placements {
		rot := 0
		if p.Rotated {
			rot = 1
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\t%s\t%d\n", p.ID, formatCoord(p.X), formatCoord(p.Y), rot); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SavePositions writes the position file at path.
func SavePositions(path string, placements []model.Placement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePositions(f, placements); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
