package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/floorpack/internal/model"
	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("ID,Width,Height\n1,60,30\n2,40,80\n")
	if got := DetectCSVDelimiter(data); got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("ID;Width;Height\n1;60;30\n2;40;80\n")
	if got := DetectCSVDelimiter(data); got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("ID\tWidth\tHeight\n1\t60\t30\n")
	if got := DetectCSVDelimiter(data); got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"ID", "Width", "Height"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping != (ColumnMapping{ID: 0, Width: 1, Height: 2}) {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_ReorderedAliases(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"H", "module", "W"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping != (ColumnMapping{ID: 1, Width: 2, Height: 0}) {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_Positional(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"1", "60", "30"})
	if isHeader {
		t.Error("did not expect a header")
	}
	if mapping != (ColumnMapping{ID: 0, Width: 1, Height: 2}) {
		t.Errorf("unexpected mapping %+v", mapping)
	}

	mapping, _ = DetectColumns([]string{"60", "30"})
	if mapping != (ColumnMapping{ID: -1, Width: 0, Height: 1}) {
		t.Errorf("two columns should be width and height, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "ID,Width,Height\n7,60,30\n9,40,80\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(result.Modules))
	}
	m := result.Modules[1]
	if m.ID != 9 || m.OrgWidth() != 40 || m.OrgHeight() != 80 {
		t.Errorf("unexpected module %d %gx%g", m.ID, m.OrgWidth(), m.OrgHeight())
	}
}

func TestImportCSVFromReader_AutoNumbering(t *testing.T) {
	data := "Width,Height\n60,30\n40,80\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d (errors: %v)", len(result.Modules), result.Errors)
	}
	if result.Modules[0].ID != 1 || result.Modules[1].ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", result.Modules[0].ID, result.Modules[1].ID)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("1,60,30\n2,40,80\n"), ',')
	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d (errors: %v)", len(result.Modules), result.Errors)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w, "header") {
			t.Errorf("unexpected header warning %q", w)
		}
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("a,b,c\n1,60,30\n"), ',')
	if len(result.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d (errors: %v)", len(result.Modules), result.Errors)
	}
}

func TestImportCSVFromReader_MissingRequiredColumn(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("ID,Width\n1,60\n"), ',')
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for the missing height column")
	}
	if !strings.Contains(result.Errors[0], "Height") {
		t.Errorf("error should name the column, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_RowErrorsAreCollected(t *testing.T) {
	data := "ID,Width,Height\n1,60,30\n2,abc,30\n3,-4,30\n1,5,5\n4,5,5\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 valid modules, got %d", len(result.Modules))
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[2], "Duplicate") {
		t.Errorf("expected a duplicate id error, got %q", result.Errors[2])
	}
	if result.Err() == nil {
		t.Error("Err should report collected errors")
	}
}

func TestImportCSVFromReader_FractionalSizeWarns(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("1,60.5,30\n"), ',')
	if len(result.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(result.Modules))
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a fractional size warning")
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')
	if len(result.Errors) == 0 {
		t.Error("expected error for empty input")
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.csv")
	if err := os.WriteFile(path, []byte("ID;Width;Height\n1;60;30\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := ImportCSV(path)
	if len(result.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d (errors: %v)", len(result.Modules), result.Errors)
	}
	if result.Warnings[0] != "Detected semicolon delimiter" {
		t.Errorf("unexpected first warning %q", result.Warnings[0])
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/modules.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modules.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Height", "Width", "ID"},
		{30, 60, 1},
		{80, 40, 2},
	})

	result := ImportExcel(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(result.Modules))
	}
	if result.Modules[0].OrgWidth() != 60 || result.Modules[0].OrgHeight() != 30 {
		t.Errorf("columns mapped wrong: %gx%g", result.Modules[0].OrgWidth(), result.Modules[0].OrgHeight())
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"ID", "Width", "Height"},
		{1, "abc", 30},
	})
	if result := ImportExcel(path); len(result.Errors) == 0 {
		t.Error("expected error for invalid width")
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	if result := ImportExcel("/nonexistent/modules.xlsx"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

// ─── DXF Import Tests ──────────────────────────────────────

func TestImportDXF_PolylinesAndCircles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.dxf")
	d := dxf.NewDrawing()
	if _, err := d.LwPolyline(true, []float64{10, 10, 0}, []float64{14, 10, 0}, []float64{14, 13, 0}, []float64{10, 13, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Circle(50, 50, 0, 2.5); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Line(0, 0, 0, 5, 5, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	result := ImportDXF(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(result.Modules))
	}
	if m := result.Modules[0]; m.ID != 1 || m.OrgWidth() != 4 || m.OrgHeight() != 3 {
		t.Errorf("polyline module %d %gx%g", m.ID, m.OrgWidth(), m.OrgHeight())
	}
	if m := result.Modules[1]; m.OrgWidth() != 5 || m.OrgHeight() != 5 {
		t.Errorf("circle module %gx%g", m.OrgWidth(), m.OrgHeight())
	}
}

func TestImportDXF_FileNotFound(t *testing.T) {
	if result := ImportDXF("/nonexistent/modules.dxf"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestBulgePoints_Semicircle(t *testing.T) {
	pts := bulgePoints(model.Pt(0, 0), model.Pt(2, 0), 1, 4)
	if len(pts) != 5 {
		t.Fatalf("expected 5 points, got %d", len(pts))
	}
	// A counter-clockwise half turn from (0,0) to (2,0) dips below the chord.
	mid := pts[2]
	if abs(mid.X-1) > 1e-9 || abs(mid.Y+1) > 1e-9 {
		t.Errorf("expected apex (1,-1), got %v", mid)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ─── Text Format Tests ─────────────────────────────────────

func TestParseModuleList_Basic(t *testing.T) {
	data := "MODULE_SIZE 3 trailing\nID W H\n1 4 3\n2 4 3\n3 6 2\n"
	mods, err := ParseModuleList(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(mods))
	}
	if mods[2].ID != 3 || mods[2].OrgWidth() != 6 || mods[2].OrgHeight() != 2 {
		t.Errorf("unexpected third module %d %gx%g", mods[2].ID, mods[2].OrgWidth(), mods[2].OrgHeight())
	}
}

func TestParseModuleList_TokensAcrossLines(t *testing.T) {
	data := "MODULE_SIZE 2\nheader\n1 4\n3 2 5 5\nextra junk\n"
	mods, err := ParseModuleList(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 2 || mods[1].ID != 2 {
		t.Fatalf("unexpected modules %+v", mods)
	}
}

func TestParseModuleList_Errors(t *testing.T) {
	cases := map[string]struct {
		data string
		want error
	}{
		"no header":  {"1 2 3\n", ErrMissingHeader},
		"bad count":  {"MODULE_SIZE x\n", ErrMissingHeader},
		"short list": {"MODULE_SIZE 2\nhdr\n1 2 3\n", ErrShortList},
		"duplicate":  {"MODULE_SIZE 2\nhdr\n1 2 3\n1 4 5\n", ErrDuplicateID},
	}
	for name, tc := range cases {
		_, err := ParseModuleList(strings.NewReader(tc.data))
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", name, tc.want, err)
		}
	}

	if _, err := ParseModuleList(strings.NewReader("MODULE_SIZE 1\nhdr\n1 0 3\n")); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestParseModuleList_Empty(t *testing.T) {
	mods, err := ParseModuleList(strings.NewReader("MODULE_SIZE 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 0 {
		t.Errorf("expected no modules, got %d", len(mods))
	}
}

func TestLoadModules_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "case.txt")
	csvPath := filepath.Join(dir, "case.csv")
	if err := os.WriteFile(txt, []byte("MODULE_SIZE 1\nhdr\n5 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csvPath, []byte("ID,Width,Height\n5,2,3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{txt, csvPath} {
		result := LoadModules(path)
		if err := result.Err(); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		l := result.Layout()
		if l.Len() != 1 || l.Module(0).ID != 5 {
			t.Errorf("%s: unexpected layout", path)
		}
	}
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec(strings.NewReader("1 10 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.ProblemType != model.ProblemAreaMin || spec.TargetWidth != 10 || !spec.UnboundedHeight() {
		t.Errorf("unexpected spec %+v", spec)
	}

	for _, bad := range []string{"", "0 10", "2 10 10", "x 10 10", "0 0 10"} {
		if _, err := ParseSpec(strings.NewReader(bad)); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("%q: expected ErrInvalidSpec, got %v", bad, err)
		}
	}
}

func TestParsePositions(t *testing.T) {
	data := "1\t0\t0\t0\n\n2\t4\t0.5\t1\n"
	ps, err := ParsePositions(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(ps))
	}
	if ps[1] != (Position{ID: 2, X: 4, Y: 0.5, Rotated: true}) {
		t.Errorf("unexpected position %+v", ps[1])
	}

	if _, err := ParsePositions(strings.NewReader("1 0 0 2\n")); err == nil {
		t.Error("expected error for rotation 2")
	}
	if _, err := ParsePositions(strings.NewReader("1 0 0\n")); err == nil {
		t.Error("expected error for a short line")
	}
}

func TestApplyPositions(t *testing.T) {
	l := model.NewLayout(nil)
	l.AddModule(1, 4, 3)
	l.AddModule(2, 6, 2)

	err := ApplyPositions(l, []Position{{ID: 2, X: 4, Y: 0, Rotated: true}, {ID: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Module(1).IsRotated() || l.Module(1).Position() != model.Pt(4, 0) {
		t.Errorf("module 2 not placed: %v", l.Module(1).Bounds())
	}

	if err := ApplyPositions(l, []Position{{ID: 9}}); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("expected ErrUnknownModule, got %v", err)
	}
	if err := ApplyPositions(l, []Position{{ID: 1}}); err == nil {
		t.Error("expected error for missing module 2")
	}
	if err := ApplyPositions(l, []Position{{ID: 1}, {ID: 1}, {ID: 2}}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}
