package chart

import (
	"errors"
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func validDoc() *ChartDocument {
	return &ChartDocument{
		Title:       "Rollout Plan",
		TimeColumns: []string{"Q1 2025", "Q2 2025", "Q3 2025", "Q4 2025"},
		Data: []Row{
			{Title: "Platform", IsSwimlane: true, Entity: "Platform"},
			{Title: "Build API", Entity: "Platform", Bar: &Bar{StartCol: intp(1), EndCol: intp(3), Color: Palette[0]}},
			{Title: "Migrate data", Entity: "Platform", Bar: &Bar{StartCol: intp(2), EndCol: intp(5), Color: Palette[1]}},
			{Title: "Research", IsSwimlane: true, Entity: "Research"},
			{Title: "User study", Entity: "Research", Bar: &Bar{StartCol: nil, EndCol: nil, Color: Palette[0]}},
		},
		Legend: []LegendEntry{
			{Color: Palette[0], Label: "Engineering"},
			{Color: Palette[1], Label: "Data"},
		},
	}
}

func TestValidate_acceptsWellFormedDocument(t *testing.T) {
	if err := Validate(validDoc()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_barBounds(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"start below range", 0, 2},
		{"end beyond range", 1, 6},
		{"empty interval", 2, 2},
		{"inverted interval", 3, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := validDoc()
			doc.Data[1].Bar = &Bar{StartCol: intp(tc.start), EndCol: intp(tc.end), Color: Palette[0]}
			if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
				t.Errorf("got %v, want ErrInvalidChart", err)
			}
		})
	}
}

func TestValidate_endColMayBeColumnsPlusOne(t *testing.T) {
	doc := validDoc()
	doc.Data[1].Bar = &Bar{StartCol: intp(4), EndCol: intp(5), Color: Palette[0]}
	if err := Validate(doc); err != nil {
		t.Fatalf("bar ending at len+1 must be accepted: %v", err)
	}
}

func TestValidate_halfSpecifiedBar(t *testing.T) {
	doc := validDoc()
	doc.Data[1].Bar = &Bar{StartCol: intp(1), EndCol: nil, Color: Palette[0]}
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("got %v, want ErrInvalidChart", err)
	}
}

func TestValidate_emptySwimlane(t *testing.T) {
	doc := validDoc()
	doc.Data = append(doc.Data, Row{Title: "Ops", IsSwimlane: true, Entity: "Ops"})
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("trailing empty swimlane: got %v, want ErrInvalidChart", err)
	}

	doc = validDoc()
	doc.Data = append(doc.Data[:1], append([]Row{{Title: "Ops", IsSwimlane: true, Entity: "Ops"}}, doc.Data[1:]...)...)
	err := Validate(doc)
	if !errors.Is(err, ErrInvalidChart) {
		t.Errorf("mid-list empty swimlane: got %v, want ErrInvalidChart", err)
	}
}

func TestValidate_taskEntityMustMatchSwimlane(t *testing.T) {
	doc := validDoc()
	doc.Data[1].Entity = "SomeoneElse"
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("got %v, want ErrInvalidChart", err)
	}
}

func TestValidate_taskBeforeAnySwimlane(t *testing.T) {
	doc := validDoc()
	doc.Data = doc.Data[1:2]
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("got %v, want ErrInvalidChart", err)
	}
}

func TestValidate_colorOutsidePalette(t *testing.T) {
	doc := validDoc()
	doc.Data[1].Bar.Color = "#FFFFFF"
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("bar color: got %v, want ErrInvalidChart", err)
	}

	doc = validDoc()
	doc.Legend[0].Color = "hotpink"
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("legend color: got %v, want ErrInvalidChart", err)
	}
}

func TestValidate_unknownTimingKeepsColor(t *testing.T) {
	doc := validDoc()
	if err := Validate(doc); err != nil {
		t.Fatalf("null-timing bar with color must pass: %v", err)
	}
	doc.Data[4].Bar = nil
	if err := Validate(doc); !errors.Is(err, ErrInvalidChart) {
		t.Errorf("task without bar: got %v, want ErrInvalidChart", err)
	}
}

func TestInstructionAndSchemaShareThePalette(t *testing.T) {
	instr := SynthesisInstruction()
	for _, c := range Palette {
		if !strings.Contains(instr, c) {
			t.Errorf("instruction missing palette color %s", c)
		}
	}
	schema := ResponseSchema()
	if _, ok := schema["required"]; !ok {
		t.Error("schema missing required list")
	}
}
