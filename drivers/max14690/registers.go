// Package max14690 provides register addresses and bitfields for the MAX14690
// wearable power-management IC.
package max14690

const (
	// 7-bit I2C address.
	AddressDefault = 0x28

	// Expected CHIP_ID readout.
	chipIDValue = 0x01

	// --- Register addresses (8-bit) ---
	regChipID  = 0x00 // R
	regChipRev = 0x01 // R
	regStatusA = 0x02 // R
	regStatusB = 0x03 // R
	regChgTmr  = 0x0C // R/W
	regThrmCfg = 0x19 // R/W
	regBootCfg = 0x1A // R/W
	regPwrCfg  = 0x1D // R/W
	regPwrOff  = 0x1F // W

	// --- ChgTmr (0x0C) ---
	chgTmrMtnShift = 4
	chgTmrMtnMask  = 0x3 << chgTmrMtnShift

	// --- ThrmCfg (0x19) ---
	thrmCfgMask = 0x3

	// --- BootCfg (0x1A) ---
	bootCfgStayOn = 1 << 0

	// --- PwrOff (0x1F) ---
	pwrOffCmd = 0xB2
)
