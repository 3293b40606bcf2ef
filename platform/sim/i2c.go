// platform/sim/i2c.go
package sim

import (
	"sync"

	"tinygo.org/x/drivers"

	"audioboot-go/errcode"
)

var _ drivers.I2C = (*RegisterI2C)(nil)

// ----------------------------- I²C (host) ------------------------------------

// RegisterI2C implements tinygo drivers.I2C with one byte-addressed register
// file per 7-bit address. Reads are write [reg] then read n; writes are
// [reg, val...] with auto-increment.
type RegisterI2C struct {
	mu   sync.Mutex
	devs map[uint16]*[256]byte
	fail map[uint16]error
	txs  int
}

func NewRegisterI2C() *RegisterI2C {
	return &RegisterI2C{devs: map[uint16]*[256]byte{}, fail: map[uint16]error{}}
}

// Attach places a device at addr with the given initial register values.
func (b *RegisterI2C) Attach(addr uint16, init map[byte]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := &[256]byte{}
	for r, v := range init {
		regs[r] = v
	}
	b.devs[addr] = regs
}

// Fail makes every transfer to addr return err (nil clears).
func (b *RegisterI2C) Fail(addr uint16, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, addr)
		return
	}
	b.fail[addr] = err
}

// Reg returns a register value; ok is false when no device sits at addr.
func (b *RegisterI2C) Reg(addr uint16, reg byte) (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs, ok := b.devs[addr]
	if !ok {
		return 0, false
	}
	return regs[reg], true
}

// Transfers counts Tx calls, including failed ones.
func (b *RegisterI2C) Transfers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}

func (b *RegisterI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txs++

	if err := b.fail[addr]; err != nil {
		return err
	}
	regs, ok := b.devs[addr]
	if !ok {
		return errcode.New(errcode.NoResponse, "i2c.tx", "nack")
	}
	if len(w) == 0 {
		return errcode.New(errcode.InvalidParams, "i2c.tx", "no register address")
	}
	reg := w[0]
	for _, v := range w[1:] {
		regs[reg] = v
		reg++
	}
	for i := range r {
		r[i] = regs[reg]
		reg++
	}
	return nil
}
