package fixed

import "testing"

func TestReLU(t *testing.T) {
	tests := []struct {
		in   Value
		want Value
	}{
		{-2048, 0},
		{-1, 0},
		{0, 0},
		{1, 1},
		{2047, 2047},
	}

	for _, tt := range tests {
		if got := ReLU(tt.in); got != tt.want {
			t.Errorf("ReLU(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRoundShift(t *testing.T) {
	tests := []struct {
		in   Value
		n    uint
		want Value
	}{
		{0, 4, 0},
		{100, 0, 100},
		{16, 4, 1},
		{23, 4, 1},  // 1.4375 rounds down
		{24, 4, 2},  // 1.5 rounds up
		{-16, 4, -1},
		{-24, 4, -1}, // -1.5 rounds toward +inf (round half up)
		{-25, 4, -2},
		{255 * 25, 8, 25}, // 6375/256 = 24.9, rounds to 25
	}

	for _, tt := range tests {
		if got := RoundShift(tt.in, tt.n); got != tt.want {
			t.Errorf("RoundShift(%d, %d) = %d, want %d", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in   Value
		bits uint
		want Value
	}{
		{0, 12, 0},
		{2047, 12, 2047},
		{2048, 12, 2047},
		{-2048, 12, -2048},
		{-2049, 12, -2048},
		{1 << 20, 12, 2047},
		{127, 8, 127},
		{200, 8, 127},
		{-200, 8, -128},
	}

	for _, tt := range tests {
		if got := Saturate(tt.in, tt.bits); got != tt.want {
			t.Errorf("Saturate(%d, %d) = %d, want %d", tt.in, tt.bits, got, tt.want)
		}
	}
}

func TestToActivation(t *testing.T) {
	// 6375 >> 0 saturates to the 12-bit maximum.
	if got := ToActivation(6375, 0); got != MaxActivation {
		t.Errorf("ToActivation(6375, 0) = %d, want %d", got, MaxActivation)
	}

	// 6375 >> 4 = 398.4 rounds to 398, inside the activation range.
	if got := ToActivation(6375, 4); got != 398 {
		t.Errorf("ToActivation(6375, 4) = %d, want 398", got)
	}
}

func TestFromWeight(t *testing.T) {
	if got := FromWeight(-1); got != -1 {
		t.Errorf("FromWeight(-1) = %d, want -1", got)
	}
	if got := FromWeight(-128); got != -128 {
		t.Errorf("FromWeight(-128) = %d, want -128", got)
	}
}

func TestVectorClone(t *testing.T) {
	v := Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 99
	if v[0] != 1 {
		t.Errorf("Clone aliases the original vector")
	}
}
