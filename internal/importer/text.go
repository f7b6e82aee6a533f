package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/floorpack/internal/model"
)

var (
	ErrMissingHeader = errors.New("missing MODULE_SIZE header")
	ErrShortList     = errors.New("module list ended early")
	ErrDuplicateID   = errors.New("duplicate module id")
	ErrInvalidSpec   = errors.New("invalid spec")
	ErrUnknownModule = errors.New("unknown module id")
)

const moduleSizeKeyword = "MODULE_SIZE"

// ParseModuleList reads the MODULE_SIZE text format: a first line
// "MODULE_SIZE <n>", one header line that is ignored, then n whitespace
// separated "<id> <width> <height>" integer triples. Anything after the
// n-th triple is ignored.
func ParseModuleList(r io.Reader) ([]model.Module, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var first string
	for sc.Scan() {
		if first = strings.TrimSpace(sc.Text()); first != "" {
			break
		}
	}
	fields := strings.Fields(first)
	if len(fields) < 2 || fields[0] != moduleSizeKeyword {
		return nil, ErrMissingHeader
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: bad module count %q", ErrMissingHeader, fields[1])
	}

	// Column header line.
	sc.Scan()

	var tokens []string
	for len(tokens) < 3*n && sc.Scan() {
		tokens = append(tokens, strings.Fields(sc.Text())...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read module list: %w", err)
	}
	if len(tokens) < 3*n {
		return nil, fmt.Errorf("%w: want %d modules, got %d", ErrShortList, n, len(tokens)/3)
	}

	modules := make([]model.Module, 0, n)
	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		var v [3]int
		for k := range v {
			tok := tokens[3*i+k]
			if v[k], err = strconv.Atoi(tok); err != nil {
				return nil, fmt.Errorf("module %d: invalid integer %q", i+1, tok)
			}
		}
		id, w, h := v[0], v[1], v[2]
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("module %d: size %dx%d must be positive", id, w, h)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = true
		modules = append(modules, model.NewModule(id, float64(w), float64(h)))
	}
	return modules, nil
}

// ImportModuleList reads a MODULE_SIZE text file into an ImportResult.
func ImportModuleList(path string) ImportResult {
	result := ImportResult{}

	f, err := os.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	defer f.Close()

	modules, err := ParseModuleList(f)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if len(modules) == 0 {
		result.Warnings = append(result.Warnings, "Module list is empty")
	}
	result.Modules = modules
	return result
}

// ParseSpec reads "<problemType> <targetWidth> <targetHeight>".
// A target height of zero or less means the height is open.
func ParseSpec(r io.Reader) (model.Spec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Spec{}, fmt.Errorf("read spec: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return model.Spec{}, fmt.Errorf("%w: want 3 values, got %d", ErrInvalidSpec, len(fields))
	}

	pt, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Spec{}, fmt.Errorf("%w: problem type %q", ErrInvalidSpec, fields[0])
	}
	spec := model.Spec{ProblemType: model.ProblemType(pt)}
	switch spec.ProblemType {
	case model.ProblemFixedOutline, model.ProblemAreaMin:
	default:
		return model.Spec{}, fmt.Errorf("%w: unknown problem type %d", ErrInvalidSpec, pt)
	}

	if spec.TargetWidth, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return model.Spec{}, fmt.Errorf("%w: target width %q", ErrInvalidSpec, fields[1])
	}
	if spec.TargetHeight, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return model.Spec{}, fmt.Errorf("%w: target height %q", ErrInvalidSpec, fields[2])
	}
	if spec.ProblemType == model.ProblemFixedOutline && spec.TargetWidth <= 0 {
		return model.Spec{}, fmt.Errorf("%w: fixed outline needs a positive width", ErrInvalidSpec)
	}
	return spec, nil
}

// LoadSpec reads a spec file from disk.
func LoadSpec(path string) (model.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Spec{}, err
	}
	defer f.Close()

	spec, err := ParseSpec(f)
	if err != nil {
		return model.Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Position is one line of a position file.
type Position struct {
	ID      int
	X, Y    float64
	Rotated bool
}

// ParsePositions reads "<id> <x> <y> <rot>" lines as written by the solver.
// Blank lines are skipped; rot is 0 or 1.
func ParsePositions(r io.Reader) ([]Position, error) {
	var positions []Position
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: want 4 fields, got %d", line, len(fields))
		}

		var p Position
		var err error
		if p.ID, err = strconv.Atoi(fields[0]); err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q", line, fields[0])
		}
		if p.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid x %q", line, fields[1])
		}
		if p.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid y %q", line, fields[2])
		}
		switch fields[3] {
		case "0":
		case "1":
			p.Rotated = true
		default:
			return nil, fmt.Errorf("line %d: invalid rotation %q", line, fields[3])
		}
		positions = append(positions, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	return positions, nil
}

// LoadPositions reads a position file from disk.
func LoadPositions(path string) ([]Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	positions, err := ParsePositions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return positions, nil
}

// ApplyPositions moves the layout's modules to the given positions, matched
// by module id. Every module must be mentioned exactly once.
func ApplyPositions(l *model.Layout, positions []Position) error {
	index := make(map[int]int, l.Len())
	for i := 0; i < l.Len(); i++ {
		index[l.Module(i).ID] = i
	}

	placed := make([]bool, l.Len())
	for _, p := range positions {
		i, ok := index[p.ID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownModule, p.ID)
		}
		if placed[i] {
			return fmt.Errorf("%w: %d placed twice", ErrDuplicateID, p.ID)
		}
		placed[i] = true
		m := l.Module(i)
		m.SetRotate(p.Rotated)
		m.SetPosition(model.Pt(p.X, p.Y))
	}

	var missing []string
	for i, ok := range placed {
		if !ok {
			missing = append(missing, strconv.Itoa(l.Module(i).ID))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no position for modules %s", strings.Join(missing, ", "))
	}
	return nil
}
