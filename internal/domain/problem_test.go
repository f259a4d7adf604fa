package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/kinematics-lab/internal/kinematics"
)

func TestNewProblemExample(t *testing.T) {
	p := NewProblem(42, 8.0, 4.0, time.Now())

	want := "A rock is thrown with an initial velocity of 8.0m/s upwards. Determine the displacement after 4.0s. Round to the nearest whole."
	if p.Question != want {
		t.Errorf("unexpected question:\n got %q\nwant %q", p.Question, want)
	}
	if math.Abs(p.Displacement()-(-46.4)) > 1e-9 {
		t.Errorf("expected displacement -46.4, got %f", p.Displacement())
	}
	if len(p.Answers) != 1 || p.Answers[0] != -46 {
		t.Errorf("expected answers [-46], got %v", p.Answers)
	}
	if p.Origin != (kinematics.Vec3{}) {
		t.Errorf("expected zero origin, got %v", p.Origin)
	}
	if p.Gravity.Y() != -9.8 || p.Gravity.X() != 0 || p.Gravity.Z() != 0 {
		t.Errorf("unexpected gravity %v", p.Gravity)
	}
}

func TestPublicHidesAnswers(t *testing.T) {
	p := NewProblem(1, 10, 2, time.Now())

	data, err := json.Marshal(p.Public(false))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"answers"`) {
		t.Errorf("answers leaked without debug: %s", data)
	}

	data, err = json.Marshal(p.Public(true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := got["answers"]; !ok {
		t.Errorf("expected answers with debug: %s", data)
	}
	if _, ok := got["created_at"]; ok {
		t.Errorf("created_at should not be serialized: %s", data)
	}
	if len(p.Answers) != 1 {
		t.Errorf("Public mutated the original answers: %v", p.Answers)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := NewProblem(1, 10, 2, time.Now())
	c := p.Clone()
	c.Answers[0] = 999
	if p.Answers[0] == 999 {
		t.Error("clone shares answers slice with original")
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	p := NewProblem(1, 10, 2, now.Add(-2*time.Hour))

	if !p.Expired(time.Hour, now) {
		t.Error("expected problem older than ttl to be expired")
	}
	if p.Expired(3*time.Hour, now) {
		t.Error("expected problem within ttl to be live")
	}
	if p.Expired(0, now) {
		t.Error("zero ttl should never expire")
	}
}
