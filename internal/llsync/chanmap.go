package llsync

import (
	"encoding/binary"

	"github.com/stenhardvara/zephyr/internal/ble"
)

const (
	// AD type of the Channel Map Update Indication carried in the ACAD.
	adTypeChannelMapUpdateInd = 0x28

	// Body length: packed channel map plus a little endian instant.
	chmUpdIndLen = ble.ChannelMapSize + 2
)

// ChannelMapUpdate stages an in-band channel map change from the ACAD of
// a periodic reception. The new map takes effect when the event counter
// reaches the indicated instant; at most one update pends at a time, so
// an indication arriving while one pends is ignored, as are malformed or
// undersized maps. Runs in the radio event domain.
func (c *Controller) ChannelMapUpdate(handle uint16, acad []byte) error {
	sync := c.enabledGet(handle)
	if sync == nil {
		return ErrNotFound
	}
	lll := &sync.lll

	if lll.ChannelMapPending() {
		return nil
	}

	// Walk the AD structures for the update indication. The data is
	// over the air input; every length is checked before use.
	for len(acad) >= 2 {
		adLen := int(acad[0])
		if adLen != 0 && acad[1] == adTypeChannelMapUpdateInd {
			if adLen != chmUpdIndLen+1 || len(acad) < 1+adLen {
				return nil
			}
			body := acad[2 : 2+chmUpdIndLen]

			chmLast := lll.chmLast + 1
			if int(chmLast) == len(lll.chm) {
				chmLast = 0
			}
			copy(lll.chm[chmLast].Map[:], body[:ble.ChannelMapSize])
			lll.chm[chmLast].Recount()
			if lll.chm[chmLast].Count < 2 {
				return nil
			}

			lll.chmInstant = binary.LittleEndian.Uint16(body[ble.ChannelMapSize:])
			lll.chmLast = chmLast

			c.log.Debug().
				Uint16("handle", handle).
				Uint16("instant", lll.chmInstant).
				Uint8("channels", lll.chm[chmLast].Count).
				Msg("channel map update staged")
			return nil
		}
		if 1+adLen > len(acad) {
			return nil
		}
		acad = acad[1+adLen:]
	}
	return nil
}
