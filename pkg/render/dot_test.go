package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/threatmap/threatmap/pkg/dfd"
)

func buildCells(t *testing.T, m *dfd.Model) []dfd.Cell {
	t.Helper()
	cells, err := dfd.Build(m)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return cells
}

func cellFor(t *testing.T, cells []dfd.Cell, componentID string) *dfd.Cell {
	t.Helper()
	for i := range cells {
		if cells[i].ComponentID() == componentID {
			return &cells[i]
		}
	}
	t.Fatalf("no cell for component %q", componentID)
	return nil
}

// nodeLine returns the DOT statement that declares the given node id.
func nodeLine(t *testing.T, dot, id string) string {
	t.Helper()
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, id) && strings.Contains(line, "label=") {
			return line
		}
	}
	t.Fatalf("no node statement for %q", id)
	return ""
}

func TestToDOT_Basic(t *testing.T) {
	m := &dfd.Model{
		Components: []dfd.Component{
			{ID: "vpc", Name: "Production VPC", Type: dfd.TypeNetwork},
			{ID: "web", Name: "web server", Type: dfd.TypeCompute, ParentID: "vpc"},
			{ID: "db", Name: "orders db", Type: dfd.TypeStorage, ParentID: "vpc"},
		},
		Flows: []dfd.Flow{
			{ID: "f1", SourceID: "web", TargetID: "db", Name: "query", Protocol: "tcp", Port: 5432},
		},
	}
	cells := buildCells(t, m)

	dot := ToDOT(cells, Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, "subgraph cluster_0") {
		t.Error("ToDOT() output missing boundary cluster")
	}
	if !strings.Contains(dot, `label="Production VPC"`) {
		t.Error("ToDOT() output missing boundary label")
	}

	web := cellFor(t, cells, "web")
	db := cellFor(t, cells, "db")
	if !strings.Contains(dot, fmt.Sprintf("%q -> %q", web.ID, db.ID)) {
		t.Error("ToDOT() output missing flow edge")
	}
	if !strings.Contains(dot, `label="query (tcp:5432)"`) {
		t.Error("ToDOT() output missing flow label")
	}
}

func TestToDOT_NestedBoundaries(t *testing.T) {
	m := &dfd.Model{
		Components: []dfd.Component{
			{ID: "account", Name: "AWS Account", Type: dfd.TypeTenancy},
			{ID: "vpc", Name: "vpc", Type: dfd.TypeNetwork, ParentID: "account"},
			{ID: "web", Name: "web", Type: dfd.TypeCompute, ParentID: "vpc"},
		},
		Flows: []dfd.Flow{},
	}
	dot := ToDOT(buildCells(t, m), Options{})

	outer := strings.Index(dot, "subgraph cluster_0")
	inner := strings.Index(dot, "subgraph cluster_1")
	if outer < 0 || inner < 0 {
		t.Fatalf("ToDOT() should emit two clusters:\n%s", dot)
	}
	if inner < outer {
		t.Error("ToDOT() inner boundary should nest inside the outer cluster")
	}
	if got := strings.Count(dot, "subgraph"); got != 2 {
		t.Errorf("ToDOT() cluster count = %d, want 2", got)
	}
}

func TestToDOT_ShapesAndColors(t *testing.T) {
	m := &dfd.Model{
		Components: []dfd.Component{
			{ID: "web", Name: "web", Type: dfd.TypeCompute},
			{ID: "db", Name: "db", Type: dfd.TypeStorage},
			{ID: "user", Name: "user", Type: dfd.TypeActor},
		},
		Flows: []dfd.Flow{},
	}
	cells := buildCells(t, m)
	dot := ToDOT(cells, Options{})

	dbLine := nodeLine(t, dot, cellFor(t, cells, "db").ID)
	if !strings.Contains(dbLine, "shape=cylinder") {
		t.Errorf("storage node should render as cylinder: %s", dbLine)
	}
	if !strings.Contains(dbLine, `fillcolor="#FFF9C4"`) {
		t.Errorf("storage node missing fill color: %s", dbLine)
	}

	userLine := nodeLine(t, dot, cellFor(t, cells, "user").ID)
	if !strings.Contains(userLine, "shape=oval") {
		t.Errorf("actor node should render as oval: %s", userLine)
	}

	webLine := nodeLine(t, dot, cellFor(t, cells, "web").ID)
	if strings.Contains(webLine, "shape=") {
		t.Errorf("process node should keep the default box shape: %s", webLine)
	}
	if !strings.Contains(webLine, `fillcolor="#E1F5FE"`) {
		t.Errorf("process node missing fill color: %s", webLine)
	}
}

func TestToDOT_BoundaryEndpoints(t *testing.T) {
	m := &dfd.Model{
		Components: []dfd.Component{
			{ID: "user", Name: "user", Type: dfd.TypeActor},
			{ID: "vpc", Name: "vpc", Type: dfd.TypeNetwork},
		},
		Flows: []dfd.Flow{
			{ID: "f1", SourceID: "user", TargetID: "vpc", Name: "request"},
			{ID: "f2", SourceID: "vpc", TargetID: "user", Name: "response"},
		},
	}
	dot := ToDOT(buildCells(t, m), Options{})

	if !strings.Contains(dot, "style=invis") {
		t.Error("ToDOT() boundary cluster missing invisible anchor node")
	}
	if !strings.Contains(dot, `lhead="cluster_0"`) {
		t.Error("ToDOT() edge into boundary should clip at the cluster border")
	}
	if !strings.Contains(dot, `ltail="cluster_0"`) {
		t.Error("ToDOT() edge out of boundary should clip at the cluster border")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	m := &dfd.Model{
		Components: []dfd.Component{
			{ID: "web", Name: "web server", Type: dfd.TypeCompute, Subtype: "lambda"},
		},
		Flows: []dfd.Flow{},
	}
	cells := buildCells(t, m)

	plain := ToDOT(cells, Options{})
	if strings.Contains(plain, "compute: lambda") {
		t.Error("ToDOT() simple mode should not include component kind")
	}

	detailed := ToDOT(cells, Options{Detailed: true})
	if !strings.Contains(detailed, "compute: lambda") {
		t.Error("ToDOT() detailed mode missing component kind")
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	m := &dfd.Model{
		Components: []dfd.Component{
			{ID: "vpc", Name: "vpc", Type: dfd.TypeNetwork},
			{ID: "web", Name: "web", Type: dfd.TypeCompute, ParentID: "vpc"},
			{ID: "db", Name: "db", Type: dfd.TypeStorage, ParentID: "vpc"},
		},
		Flows: []dfd.Flow{
			{ID: "f1", SourceID: "web", TargetID: "db", Name: "query"},
		},
	}
	cells := buildCells(t, m)

	if a, b := ToDOT(cells, Options{}), ToDOT(cells, Options{}); a != b {
		t.Error("ToDOT() should be deterministic for equal input")
	}
}

func TestFmtLabel_Simple(t *testing.T) {
	c := &dfd.Cell{
		Shape: dfd.ShapeProcess,
		Attrs: dfd.CellAttrs{Text: &dfd.TextAttrs{Text: "web server"}},
	}

	if got := fmtLabel(c, false); got != "web server" {
		t.Errorf("fmtLabel() simple mode = %q, want %q", got, "web server")
	}
}

func TestFmtLabel_Detailed(t *testing.T) {
	c := &dfd.Cell{
		Shape: dfd.ShapeProcess,
		Attrs: dfd.CellAttrs{Text: &dfd.TextAttrs{Text: "web server"}},
		Data: &dfd.CellData{Metadata: []dfd.MetadataEntry{
			{Key: dfd.MetaKeyComponentID, Value: "web"},
			{Key: dfd.MetaKeyComponentType, Value: "compute"},
			{Key: dfd.MetaKeyComponentSubtype, Value: "lambda"},
		}},
	}

	if got, want := fmtLabel(c, true), "web server\ncompute: lambda"; got != want {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, want)
	}
}

func TestFmtLabel_DetailedWithoutSubtype(t *testing.T) {
	c := &dfd.Cell{
		Shape: dfd.ShapeStore,
		Attrs: dfd.CellAttrs{Text: &dfd.TextAttrs{Text: "orders db"}},
		Data: &dfd.CellData{Metadata: []dfd.MetadataEntry{
			{Key: dfd.MetaKeyComponentID, Value: "db"},
			{Key: dfd.MetaKeyComponentType, Value: "storage"},
			{Key: dfd.MetaKeyComponentSubtype, Value: ""},
		}},
	}

	if got, want := fmtLabel(c, true), "orders db\nstorage"; got != want {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, want)
	}
}

func TestDotShape(t *testing.T) {
	tests := []struct {
		shape dfd.Shape
		want  string
	}{
		{dfd.ShapeProcess, ""},
		{dfd.ShapeStore, "cylinder"},
		{dfd.ShapeActor, "oval"},
		{dfd.ShapeSecurityBoundary, ""},
	}

	for _, tt := range tests {
		if got := dotShape(tt.shape); got != tt.want {
			t.Errorf("dotShape(%q) = %q, want %q", tt.shape, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	dot := `digraph G { a -> b; }`
	svg, err := RenderSVG(dot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}

	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	dot := `not valid DOT {{{`
	_, err := RenderSVG(dot)
	if err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
