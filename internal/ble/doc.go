// Package ble holds the radio timing constants and pure protocol math the
// synchronization engine depends on: PDU airtime per PHY, receiver ready
// delays, the sleep-clock-accuracy to ppm table, data channel map handling
// and 32768 Hz scheduler tick conversion.
package ble
