package rtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeDetector(t *testing.T) {
	var d edgeDetector
	d.prime(Inputs{TCK: 0, TRSTn: 1})

	steps := []struct {
		in   Inputs
		want Trigger
	}{
		{Inputs{TCK: 0, TRSTn: 1}, 0},
		{Inputs{TCK: 1, TRSTn: 1}, TriggerPosedgeTCK},
		{Inputs{TCK: 1, TRSTn: 1}, 0},
		{Inputs{TCK: 0, TRSTn: 1}, TriggerNegedgeTCK},
		{Inputs{TCK: 0, TRSTn: 0}, TriggerNegedgeTRST},
		{Inputs{TCK: 1, TRSTn: 0}, TriggerPosedgeTCK},
		{Inputs{TCK: 0, TRSTn: 1}, TriggerNegedgeTCK},
		{Inputs{TCK: 1, TRSTn: 0}, TriggerPosedgeTCK | TriggerNegedgeTRST},
	}
	for i, step := range steps {
		assert.Equal(t, step.want, d.detect(step.in), "step %d", i)
	}
}

func TestTriggerString(t *testing.T) {
	assert.Equal(t, "none", Trigger(0).String())
	assert.Equal(t, "negedge trst_n", TriggerNegedgeTRST.String())
	assert.Equal(t, "posedge tck|negedge trst_n", (TriggerPosedgeTCK | TriggerNegedgeTRST).String())
	assert.True(t, (TriggerPosedgeTCK | TriggerNegedgeTCK).Has(TriggerNegedgeTCK))
	assert.False(t, TriggerPosedgeTCK.Has(0))
	assert.True(t, TriggerNegedgeTCK.Any(TriggerPosedgeTCK|TriggerNegedgeTCK))
}
