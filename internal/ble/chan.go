package ble

import "math/bits"

const (
	// NumDataChannels is the number of data channels a map can enable.
	NumDataChannels = 37

	// ChannelMapSize is the byte length of a packed channel map.
	ChannelMapSize = 5

	// The sync info packs the advertiser clock accuracy into the top
	// three bits of the last channel map byte.
	scaByteOffset = 4
	scaBitMask    = 0xE0
	scaBitPos     = 5
)

// ChannelMap is a packed 37 channel data channel map together with the
// count of channels it enables.
type ChannelMap struct {
	Map   [ChannelMapSize]byte
	Count uint8
}

// Recount refreshes Count from the packed map.
func (cm *ChannelMap) Recount() {
	var n int
	for _, b := range cm.Map {
		n += bits.OnesCount8(b)
	}
	cm.Count = uint8(n)
}

// MaskSCA clears the clock accuracy bits a sync info reception leaves in
// the packed map.
func MaskSCA(m *[ChannelMapSize]byte) {
	m[scaByteOffset] &^= scaBitMask
}

// SCAFromChm extracts the advertiser clock accuracy field from the packed
// sca_chm bytes of a sync info structure.
func SCAFromChm(scaChm [ChannelMapSize]byte) uint8 {
	return (scaChm[scaByteOffset] & scaBitMask) >> scaBitPos
}

// ChannelID derives the channel selection identifier from an access
// address: the upper half of the address xored with the lower half.
func ChannelID(aa [4]byte) uint16 {
	hi := uint16(aa[3])<<8 | uint16(aa[2])
	lo := uint16(aa[1])<<8 | uint16(aa[0])
	return hi ^ lo
}
