package ble

// TickerFrequencyHz is the rate of the low power scheduler clock.
const TickerFrequencyHz = 32768

// TicksFromUs converts microseconds to whole scheduler ticks.
func TicksFromUs(us uint32) uint32 {
	return uint32(uint64(us) * TickerFrequencyHz / 1_000_000)
}

// RemainderFromUs returns the sub-tick remainder of the conversion, scaled
// by the tick frequency, for schedulers that accumulate it across events.
func RemainderFromUs(us uint32) uint32 {
	return uint32(uint64(us) * TickerFrequencyHz % 1_000_000)
}
