package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompliancePercent(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		want    float64
	}{
		{"no target", 80, 0, 0},
		{"halfway", 50, 100, 50},
		{"at target", 95, 95, 100},
		{"over target caps at 100", 120, 95, 100},
		{"far below", 10, 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &KPI{CurrentValue: tt.current, TargetValue: tt.target}
			assert.InDelta(t, tt.want, k.CompliancePercent(), 0.01)
		})
	}
}
