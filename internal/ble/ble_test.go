package ble

import "testing"

func TestPduUs(t *testing.T) {
	cases := []struct {
		name  string
		len   uint8
		phy   PHY
		flags uint8
		want  uint32
	}{
		{"1M empty", 0, PHY1M, 0, 80},
		{"1M 30 bytes", 30, PHY1M, 0, 320},
		{"1M max", 255, PHY1M, 0, 2120},
		{"2M 30 bytes", 30, PHY2M, 0, 164},
		{"coded s8 30 bytes", 30, PHYCoded, PHYFlagsS8, 2640},
		{"coded s2 30 bytes", 30, PHYCoded, PHYFlagsS2, 942},
		{"coded s8 max", 255, PHYCoded, PHYFlagsS8, 17040},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PduUs(tc.len, tc.phy, tc.flags); got != tc.want {
				t.Errorf("PduUs(%d, %v, %d) = %d, want %d",
					tc.len, tc.phy, tc.flags, got, tc.want)
			}
		})
	}
}

func TestPduMaxUsAssumesSlowestCoding(t *testing.T) {
	if got, want := PduMaxUs(255, PHYCoded), PduUs(255, PHYCoded, PHYFlagsS8); got != want {
		t.Errorf("PduMaxUs = %d, want %d", got, want)
	}
}

func TestRxReadyDelayUs(t *testing.T) {
	if got := RxReadyDelayUs(PHY1M); got != 140 {
		t.Errorf("1M ready delay %d, want 140", got)
	}
	if got := RxReadyDelayUs(PHY2M); got != 145 {
		t.Errorf("2M ready delay %d, want 145", got)
	}
	if got := RxReadyDelayUs(PHYCoded); got != 130 {
		t.Errorf("coded ready delay %d, want 130", got)
	}
	if got := RxReadyDelayUs(PHY(0x08)); got != 140 {
		t.Errorf("unknown phy ready delay %d, want 1M fallback", got)
	}
}

func TestClockPPM(t *testing.T) {
	want := [8]uint32{500, 250, 150, 100, 75, 50, 30, 20}
	for sca, ppm := range want {
		if got := ClockPPM(uint8(sca)); got != ppm {
			t.Errorf("ClockPPM(%d) = %d, want %d", sca, got, ppm)
		}
	}
	if got := ClockPPM(8); got != 500 {
		t.Errorf("out of range sca = %d, want worst class 500", got)
	}
}

func TestChannelMapRecount(t *testing.T) {
	cm := ChannelMap{Map: [ChannelMapSize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}}
	cm.Recount()
	if cm.Count != 37 {
		t.Errorf("full map count %d, want 37", cm.Count)
	}
	cm = ChannelMap{Map: [ChannelMapSize]byte{0x05, 0x00, 0x00, 0x00, 0x00}}
	cm.Recount()
	if cm.Count != 2 {
		t.Errorf("count %d, want 2", cm.Count)
	}
}

func TestSCAExtraction(t *testing.T) {
	scaChm := [ChannelMapSize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xBF}
	if got := SCAFromChm(scaChm); got != 5 {
		t.Errorf("sca %d, want 5", got)
	}
	MaskSCA(&scaChm)
	if scaChm[4] != 0x1F {
		t.Errorf("masked byte %#x, want 0x1f", scaChm[4])
	}
}

func TestChannelID(t *testing.T) {
	if got := ChannelID([4]byte{0x29, 0x17, 0x66, 0x8A}); got != 0x9D4F {
		t.Errorf("channel id %#x, want 0x9d4f", got)
	}
	if got := ChannelID([4]byte{0x00, 0x00, 0x00, 0x00}); got != 0 {
		t.Errorf("channel id %#x, want 0", got)
	}
}

func TestTicksConversion(t *testing.T) {
	if got := TicksFromUs(1_000_000); got != 32768 {
		t.Errorf("one second = %d ticks, want 32768", got)
	}
	if got := TicksFromUs(999_450); got != 32749 {
		t.Errorf("999450 us = %d ticks, want 32749", got)
	}
	if got := RemainderFromUs(999_450); got != 977_600 {
		t.Errorf("remainder %d, want 977600", got)
	}
	if got := RemainderFromUs(1_000_000); got != 0 {
		t.Errorf("exact conversion remainder %d, want 0", got)
	}
}
