package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluationGrade(t *testing.T) {
	perfect := Scores{3, 3, 3, 3, 3}
	passing := Scores{3, 3, 2, 2, 2}  // 12
	failing := Scores{3, 3, 2, 2, 1}  // 11
	terrible := Scores{0, 0, 0, 0, 0} // 0

	tests := []struct {
		name      string
		scores    Scores
		critical  bool
		wantTotal int
		wantPass  bool
	}{
		{name: "perfect", scores: perfect, wantTotal: 15, wantPass: true},
		{name: "exactly at threshold", scores: passing, wantTotal: 12, wantPass: true},
		{name: "one point short", scores: failing, wantTotal: 11, wantPass: false},
		{name: "all zeros", scores: terrible, wantTotal: 0, wantPass: false},
		{name: "critical failure overrides perfect score", scores: perfect, critical: true, wantTotal: 15, wantPass: false},
		{name: "critical failure with failing score", scores: failing, critical: true, wantTotal: 11, wantPass: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Evaluation{Scores: tt.scores, CriticalFailure: tt.critical}
			e.Grade()
			assert.Equal(t, tt.wantTotal, e.TotalScore)
			assert.Equal(t, tt.wantPass, e.Passed)
		})
	}
}
