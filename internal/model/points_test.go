package model

import "testing"

func TestCalculatePointsExamples(t *testing.T) {
	tests := []struct {
		importance, complexity int
		want                   int
	}{
		{50, 1, 500},
		{25, 5, 50},
		{30, 3, 100},
		{0, 1, 0},
		{0, 9, 0},
		{1, 3, 3},    // 3.33
		{1, 6, 2},    // 1.67
		{5, 2, 25},   // exact
		{1, 2, 5},    // 5.0
		{7, 4, 18},   // 17.5 rounds half away from zero
		{50, 0, 500}, // complexity clamped to 1
	}

	for _, tt := range tests {
		got := CalculatePoints(tt.importance, tt.complexity)
		if got != tt.want {
			t.Errorf("CalculatePoints(%d, %d) = %d, want %d", tt.importance, tt.complexity, got, tt.want)
		}
	}
}

func TestCalculatePointsBounded(t *testing.T) {
	for i := MinImportance; i <= MaxImportance; i++ {
		for c := MinComplexity; c <= MaxComplexity; c++ {
			p := CalculatePoints(i, c)
			if p < 0 || p > MaxPoints {
				t.Fatalf("CalculatePoints(%d, %d) = %d out of range", i, c, p)
			}
			// Before clamping the rule is plain rounding; within range it never clamps.
			lo := 10*i/c - 1
			hi := 10*i/c + 1
			if p < lo || p > hi {
				t.Fatalf("CalculatePoints(%d, %d) = %d, not near 10i/c", i, c, p)
			}
		}
	}
}

func TestTaskSettersRecalculatePoints(t *testing.T) {
	task := Task{Importance: 10, Complexity: 2}
	task.RecalculatePoints()
	if task.Points != 50 {
		t.Fatalf("expected 50 points, got %d", task.Points)
	}

	task.SetImportance(50)
	if task.Points != 250 {
		t.Errorf("after SetImportance expected 250, got %d", task.Points)
	}

	task.SetComplexity(1)
	if task.Points != 500 {
		t.Errorf("after SetComplexity expected 500, got %d", task.Points)
	}
}

func TestTaskWalkOrder(t *testing.T) {
	root := Task{
		Name: "root",
		Subtasks: []Task{
			{Name: "a", Subtasks: []Task{{Name: "a1"}}},
			{Name: "b"},
		},
	}

	var names []string
	var depths []int
	root.Walk(func(task *Task, depth int) bool {
		names = append(names, task.Name)
		depths = append(depths, depth)
		return true
	})

	wantNames := []string{"root", "a", "a1", "b"}
	wantDepths := []int{0, 1, 2, 1}
	for i := range wantNames {
		if names[i] != wantNames[i] || depths[i] != wantDepths[i] {
			t.Fatalf("walk visit %d = (%s, %d), want (%s, %d)", i, names[i], depths[i], wantNames[i], wantDepths[i])
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	if err != nil || d != nil {
		t.Fatalf("empty date should be absent, got %v, %v", d, err)
	}

	d, err = ParseDate("2024-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(d) != "2024-03-09" {
		t.Errorf("round trip mismatch: %s", FormatDate(d))
	}

	if _, err := ParseDate("09/03/2024"); err == nil {
		t.Error("expected error for non ISO date")
	}
}
