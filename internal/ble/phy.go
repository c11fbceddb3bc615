package ble

// PHY identifies the physical layer of a radio event.
type PHY uint8

const (
	PHY1M    PHY = 0x01
	PHY2M    PHY = 0x02
	PHYCoded PHY = 0x04
)

// Coding scheme selector for PHYCoded receptions.
const (
	PHYFlagsS8 uint8 = 0
	PHYFlagsS2 uint8 = 1
)

func (p PHY) String() string {
	switch p {
	case PHY1M:
		return "1M"
	case PHY2M:
		return "2M"
	case PHYCoded:
		return "Coded"
	}
	return "unknown"
}

// PduUs returns the airtime of an advertising channel PDU with the given
// payload length: preamble, access address, 2 byte header, payload and CRC.
// For the coded PHY the flags select the S=2 or S=8 coding of the payload.
func PduUs(payloadLen uint8, phy PHY, flags uint8) uint32 {
	n := uint32(payloadLen)
	switch phy {
	case PHY2M:
		// 2 byte preamble, 4 us per byte.
		return (11 + n) * 4
	case PHYCoded:
		// FEC block 1: preamble 80 us, AA 256 us, CI 16 us, TERM1 24 us.
		// FEC block 2: (payload + CRC) bits plus TERM2, S us per bit.
		bits := (n+5)*8 + 3
		if flags == PHYFlagsS2 {
			return 376 + bits*2
		}
		return 376 + bits*8
	default:
		// 1M: 1 byte preamble, 8 us per byte.
		return (10 + n) * 8
	}
}

// PduMaxUs returns the worst case airtime for the payload length, assuming
// the slowest coding on the coded PHY.
func PduMaxUs(payloadLen uint8, phy PHY) uint32 {
	return PduUs(payloadLen, phy, PHYFlagsS8)
}

// rxReadyDelayUs is the radio ramp-up time from rx request to listening.
var rxReadyDelayUs = map[PHY]uint32{
	PHY1M:    140,
	PHY2M:    145,
	PHYCoded: 130,
}

// RxReadyDelayUs returns the receiver ready delay for the PHY.
func RxReadyDelayUs(phy PHY) uint32 {
	if d, ok := rxReadyDelayUs[phy]; ok {
		return d
	}
	return rxReadyDelayUs[PHY1M]
}
