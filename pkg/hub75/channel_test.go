package hub75

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannelOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    ChannelOrder
		wantErr bool
	}{
		{in: "RGB", want: OrderRGB},
		{in: "brg", want: OrderBRG},
		{in: " GBR ", want: ChannelOrder{ChannelG, ChannelB, ChannelR}},
		{in: "RRB", wantErr: true},
		{in: "RGBA", wantErr: true},
		{in: "XYZ", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChannelOrder(tt.in)
			if tt.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "channel_order", cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.valid())
		})
	}
}

func TestChannelOrderApply(t *testing.T) {
	px := Pixel{R: 1, G: 2, B: 3}

	r, g, b := OrderRGB.Apply(px)
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})

	// red line fed from blue, green from red, blue from green
	r, g, b = OrderBRG.Apply(px)
	assert.Equal(t, [3]uint8{3, 1, 2}, [3]uint8{r, g, b})

	assert.Equal(t, "BRG", OrderBRG.String())
	assert.False(t, ChannelOrder{}.valid())
}
