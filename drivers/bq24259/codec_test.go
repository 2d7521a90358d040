package bq24259

import "testing"

func TestIchgToMilliamps(t *testing.T) {
	cases := []struct {
		ichg uint8
		want uint16
	}{
		{0, 512},
		{0b01100, 1280},
		{0b11000, 2048}, // power-on default
		{31, 2496},
	}
	for _, c := range cases {
		if got := IchgToMilliamps(c.ichg); got != c.want {
			t.Errorf("IchgToMilliamps(%d) = %d, want %d", c.ichg, got, c.want)
		}
	}
}

func TestMilliampsToIchg(t *testing.T) {
	cases := []struct {
		mA   uint16
		want uint8
	}{
		{2048, 0b11000},
		{896, 0b00110},
		{512, 0},
		{10000, 0b11000}, // clamped high
		{5, 0},           // clamped low
		{575, 0},         // rounds down
		{639, 1},
	}
	for _, c := range cases {
		if got := MilliampsToIchg(c.mA); got != c.want {
			t.Errorf("MilliampsToIchg(%d) = %d, want %d", c.mA, got, c.want)
		}
	}
}

func TestIchgConversionInverse(t *testing.T) {
	if ichgMaxCode != 24 {
		t.Fatalf("ichgMaxCode = %d", ichgMaxCode)
	}
	for code := uint8(0); code <= ichgMaxCode; code++ {
		mA := IchgToMilliamps(code)
		if got := MilliampsToIchg(mA); got != code {
			t.Fatalf("code %d -> %d mA -> code %d", code, mA, got)
		}
		if back := IchgToMilliamps(MilliampsToIchg(mA)); back != mA {
			t.Fatalf("%d mA did not survive round trip (%d)", mA, back)
		}
	}
}
