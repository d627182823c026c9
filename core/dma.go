// dma.go - DMA engine

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
dma.go - DMA Controller

Four independent channels per CPU, each a plain register set plus a
Trigger entry point System calls when the channel's configured start
timing condition occurs (immediately on control-register write, or from
VideoUnit/GPU announcing VBlank, HBlank, or GXFIFO-half-empty). A channel
copies its whole configured block synchronously from the interpreter's
point of view - real hardware steals bus cycles instead, while this
engine charges no cycle cost for the copy and does not model per-word
bus contention, the same simplification the
teacher's DMA-less bus model makes for timing-insensitive transfers.
*/

package core

import "github.com/zoltrix-systems/ndscore/mem"

type DMATiming int

const (
	DMAImmediate DMATiming = iota
	DMAVBlank
	DMAHBlank
	DMASlot1
	DMAGXFIFO
)

type DMAChannel struct {
	SrcAddr, DstAddr uint32
	WordCount        uint32
	Control          uint32 // raw control register; bit layout decoded by helpers below
	running          bool
}

func (ch *DMAChannel) repeat() bool      { return ch.Control&(1<<25) != 0 }
func (ch *DMAChannel) wordTransfer() bool { return ch.Control&(1<<26) != 0 }
func (ch *DMAChannel) irqOnEnd() bool    { return ch.Control&(1<<30) != 0 }
func (ch *DMAChannel) enabled() bool     { return ch.Control&(1<<31) != 0 }
func (ch *DMAChannel) timing() DMATiming { return DMATiming((ch.Control >> 27) & 0x7 % 5) }
func (ch *DMAChannel) srcControl() uint32 { return (ch.Control >> 21) & 0x3 }
func (ch *DMAChannel) dstControl() uint32 { return (ch.Control >> 18) & 0x3 }

// Engine owns the four channels for one CPU.
type Engine struct {
	CPUIndex int
	Channels [4]DMAChannel
	bus      *mem.Bus
	irq      *IRQController
	irqBits  [4]IRQSource
}

func NewEngine(cpuIndex int, bus *mem.Bus, irq *IRQController) *Engine {
	return &Engine{
		CPUIndex: cpuIndex,
		bus:      bus,
		irq:      irq,
		irqBits:  [4]IRQSource{IRQDMA0, IRQDMA1, IRQDMA2, IRQDMA3},
	}
}

func (e *Engine) Reset() {
	for i := range e.Channels {
		e.Channels[i] = DMAChannel{}
	}
}

// WriteControl applies a new control register value and, if it both
// enables the channel and selects Immediate timing, fires the transfer
// right away.
func (e *Engine) WriteControl(channel int, value uint32) {
	ch := &e.Channels[channel]
	wasEnabled := ch.enabled()
	ch.Control = value
	if ch.enabled() && !wasEnabled && ch.timing() == DMAImmediate {
		e.run(channel)
	}
}

// Trigger fires every enabled channel configured for the given timing.
// VideoUnit calls this with DMAVBlank/DMAHBlank, the GPU command FIFO with
// DMAGXFIFO when it crosses half-empty.
func (e *Engine) Trigger(timing DMATiming) {
	for i := range e.Channels {
		ch := &e.Channels[i]
		if ch.enabled() && ch.timing() == timing {
			e.run(i)
		}
	}
}

func (e *Engine) run(channel int) {
	ch := &e.Channels[channel]
	step := uint32(2)
	if ch.wordTransfer() {
		step = 4
	}

	src, dst := ch.SrcAddr, ch.DstAddr
	for n := uint32(0); n < ch.WordCount; n++ {
		if ch.wordTransfer() {
			e.bus.WriteWord(dst, e.bus.ReadWord(src, mem.BusData), mem.BusData)
		} else {
			e.bus.WriteHalf(dst, e.bus.ReadHalf(src, mem.BusData), mem.BusData)
		}
		switch ch.srcControl() {
		case 0:
			src += step
		case 1:
			src -= step
		}
		switch ch.dstControl() {
		case 0, 3:
			dst += step
		case 1:
			dst -= step
		}
	}

	if ch.dstControl() == 3 {
		// increment/reload: dst resets to its configured base on repeat
	} else {
		ch.DstAddr = dst
	}
	if ch.srcControl() != 2 {
		ch.SrcAddr = src
	}

	if ch.irqOnEnd() && e.irq != nil {
		e.irq.Raise(e.irqBits[channel])
	}
	if !ch.repeat() {
		ch.Control &^= 1 << 31
	}
}
