package pen

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAngle(t *testing.T) {
	assert.Equal(t, uint8(0), Angle(-20).Angle(DefaultAngle))
	assert.Equal(t, uint8(255), Angle(300).Angle(DefaultAngle))
	assert.Equal(t, uint8(13), Angle(12.2).Angle(DefaultAngle))
	assert.False(t, Angle(0).IsDefault())

	assert.True(t, Angle(math.NaN()).IsDefault())
	assert.True(t, State{}.IsDefault())
	assert.Equal(t, DefaultAngle, Default.Angle(DefaultAngle))
	assert.Equal(t, "default", Default.String())
	assert.Equal(t, "90", Angle(90).String())
}

func TestSettleDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), SettleDelay(Default, Default, DefaultAngle))
	assert.Equal(t, time.Duration(0), SettleDelay(Default, Angle(60), DefaultAngle))
	assert.Equal(t, 420*time.Millisecond, SettleDelay(Default, Angle(0), DefaultAngle))
	assert.Equal(t, 105*time.Millisecond, SettleDelay(Angle(100), Angle(115), DefaultAngle))
	assert.Equal(t, 105*time.Millisecond, SettleDelay(Angle(115), Angle(100), DefaultAngle))
}
