package kinematics

import (
	"encoding/json"
	"math"
	"testing"
)

func TestDisplacementExample(t *testing.T) {
	got := Displacement(Vec3{}, Up(8.0), Gravity(), 4.0)
	if math.Abs(got-(-46.4)) > 1e-9 {
		t.Errorf("expected -46.4, got %f", got)
	}
	if r := Round(got); r != -46 {
		t.Errorf("expected rounded -46, got %d", r)
	}
}

func TestDisplacementUsesOrigin(t *testing.T) {
	got := Displacement(Vec3{0, 10, 0}, Up(0), Gravity(), 0)
	if got != 10 {
		t.Errorf("expected origin height 10, got %f", got)
	}
}

func TestDisplacementIgnoresHorizontal(t *testing.T) {
	a := Displacement(Vec3{}, Vec3{5, 3, 7}, Gravity(), 2)
	b := Displacement(Vec3{}, Up(3), Gravity(), 2)
	if a != b {
		t.Errorf("horizontal components changed displacement: %f vs %f", a, b)
	}
}

func TestRoundTiesToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{2.5, 2},
		{3.5, 4},
		{-2.5, -2},
		{-46.4, -46},
		{-46.6, -47},
		{0.49, 0},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestVec3JSON(t *testing.T) {
	data, err := json.Marshal(Gravity())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[0,-9.8,0]" {
		t.Errorf("unexpected encoding %s", data)
	}
}
