package ble

// clockPPM maps a sleep clock accuracy field value to its worst case parts
// per million.
var clockPPM = [8]uint32{500, 250, 150, 100, 75, 50, 30, 20}

// ClockPPM returns the worst case drift in ppm for a declared sleep clock
// accuracy class. Out of range values report the worst class.
func ClockPPM(sca uint8) uint32 {
	if int(sca) >= len(clockPPM) {
		return clockPPM[0]
	}
	return clockPPM[sca]
}
