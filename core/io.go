// io.go - MMIO register dispatch

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
io.go - IO Register Dispatch

System implements mem.IOHandler with a byte-granular switch over absolute
address, exactly the style registers.go documents for the teacher's own
address map: "one authority, one switch, one place to look up what an
address does." 16/32-bit accesses are composed from repeated byte calls by
Bus itself; the handful of registers with side effects that must not be
split into independent byte writes (IPC FIFO send/recv, the GXFIFO packed
command register, DIV/SQRT operand writes) keep their own byte-assembly
buffer here and only apply the side effect once the top byte lands,
because that's the byte a 32-bit little-endian store writes last.
*/

package core

import "github.com/zoltrix-systems/ndscore/mem"

const (
	regDISPSTAT    = 0x04000004
	regVCOUNT      = 0x04000006
	regIME         = 0x04000208
	regIE          = 0x04000210
	regIF          = 0x04000214
	regPOSTFLG     = 0x04000300
	regWRAMCNT     = 0x04000247
	regVRAMCNTBase = 0x04000240 // A..I then 0x04000248 (H), 0x04000249 (I)
	regIPCSYNC     = 0x04000180
	regIPCFIFOCNT  = 0x04000184
	regIPCFIFOSEND = 0x04000188
	regIPCFIFORECV = 0x04100000
	regDIVCNT      = 0x04000280
	regDIVNUMER    = 0x04000290
	regDIVDENOM    = 0x04000298
	regDIVRESULT   = 0x040002A0
	regDIVREMAIN   = 0x040002A8
	regSQRTCNT     = 0x040002B0
	regSQRTRESULT  = 0x040002B4
	regSQRTPARAM   = 0x040002B8
	regGXFIFO      = 0x04000400
	regGXSTAT      = 0x04000600
	regClipMatrix  = 0x04000640
	regDISP3DCNT   = 0x04000060
	regEdgeColor   = 0x04000330 // 8 x 16-bit entries
	regAlphaRef    = 0x04000340
	regToonTable   = 0x04000380 // 32 x 16-bit entries, per original_source's REG_EDGE_COLOR_LO/REG_ALPHA_TEST_REF/REG_TOON_TABLE_LO
)

func (s *System) irqFor(cpu int) *IRQController {
	if cpu == 0 {
		return s.arm9IRQ
	}
	return s.arm7IRQ
}

func (s *System) dmaFor(cpu int) *Engine {
	if cpu == 0 {
		return s.arm9DMA
	}
	return s.arm7DMA
}

func (s *System) timersFor(cpu int) *TimerSet {
	if cpu == 0 {
		return s.arm9Timers
	}
	return s.arm7Timers
}

// IORead8 implements mem.IOHandler.
func (s *System) IORead8(cpu int, addr uint32) uint8 {
	switch {
	case addr == regDISPSTAT, addr == regDISPSTAT+1:
		return s.readDISPSTAT(cpu, addr-regDISPSTAT)
	case addr == regVCOUNT, addr == regVCOUNT+1:
		return s.readVCOUNT(addr - regVCOUNT)
	case addr == regIME:
		if s.irqFor(cpu).IME {
			return 1
		}
		return 0
	case addr >= regIE && addr < regIE+4:
		return byteOf(s.irqFor(cpu).IE, addr-regIE)
	case addr >= regIF && addr < regIF+4:
		return byteOf(s.irqFor(cpu).IF, addr-regIF)
	case addr == regPOSTFLG:
		return s.postflg
	case addr == regWRAMCNT:
		return s.wramCnt
	case addr >= regVRAMCNTBase && addr < regVRAMCNTBase+10 && addr != regWRAMCNT:
		return s.VRAM.CNT(bankLetterForOffset(addr - regVRAMCNTBase))
	case addr == regIPCSYNC, addr == regIPCSYNC+1:
		own, remote := s.ipc.ReadSync(cpu)
		if addr == regIPCSYNC {
			return own
		}
		return remote
	case addr == regIPCFIFORECV, addr >= regIPCFIFORECV && addr < regIPCFIFORECV+4:
		return byteOf(s.ipc.Receive(cpu), addr-regIPCFIFORECV)
	case addr >= regDIVRESULT && addr < regDIVRESULT+8:
		return byteOf64(s.math.DivResult(), addr-regDIVRESULT)
	case addr >= regDIVREMAIN && addr < regDIVREMAIN+8:
		return byteOf64(s.math.DivRemainder(), addr-regDIVREMAIN)
	case addr >= regSQRTRESULT && addr < regSQRTRESULT+4:
		return byteOf(s.math.SqrtResult(), addr-regSQRTRESULT)
	case addr == regGXSTAT, addr >= regGXSTAT && addr < regGXSTAT+4:
		if s.gpu == nil {
			return 0
		}
		return byteOf(s.gpu.ReadGXSTAT(), addr-regGXSTAT)
	case addr >= regClipMatrix && addr < regClipMatrix+64:
		if s.gpu == nil {
			return 0
		}
		regIdx := int(addr-regClipMatrix) / 4
		return byteOf(s.gpu.ReadClipMatrix(regIdx), (addr-regClipMatrix)%4)
	case addr == regDISP3DCNT, addr == regDISP3DCNT+1:
		return byteOf(uint32(s.disp3dcnt), addr-regDISP3DCNT)
	case addr == regAlphaRef:
		return s.alphaTestRef
	case addr >= dmaRegBase(cpu) && addr < dmaRegBase(cpu)+4*12:
		return s.readDMAReg(cpu, addr)
	case addr >= timerRegBase(cpu) && addr < timerRegBase(cpu)+16:
		return s.readTimerReg(cpu, addr)
	default:
		return 0
	}
}

// IOWrite8 implements mem.IOHandler.
func (s *System) IOWrite8(cpu int, addr uint32, v uint8) {
	switch {
	case addr == regDISPSTAT, addr == regDISPSTAT+1:
		s.writeDISPSTAT(cpu, addr-regDISPSTAT, v)
	case addr == regIME:
		s.irqFor(cpu).IME = v&1 != 0
	case addr >= regIE && addr < regIE+4:
		s.irqFor(cpu).IE = setByteOf(s.irqFor(cpu).IE, addr-regIE, v)
	case addr >= regIF && addr < regIF+4:
		s.irqFor(cpu).Acknowledge(uint32(v) << (8 * (addr - regIF)))
	case addr == regPOSTFLG:
		s.postflg = v
	case addr == regWRAMCNT:
		s.wramCnt = v & 0x3
		s.ARM9.Bus.SetWRAMCNT(s.wramCnt)
		s.ARM7.Bus.SetWRAMCNT(s.wramCnt)
	case addr >= regVRAMCNTBase && addr < regVRAMCNTBase+10 && addr != regWRAMCNT:
		s.VRAM.WriteVRAMCNT(bankLetterForOffset(addr-regVRAMCNTBase), v)
	case addr == regIPCSYNC+1:
		s.syncIRQOn[cpu] = v&0x40 != 0
		trigger := v&0x20 != 0
		own, _ := s.ipc.ReadSync(cpu)
		s.ipc.WriteSync(cpu, own, s.syncIRQOn[cpu], trigger)
	case addr == regIPCSYNC:
		s.ipc.WriteSync(cpu, v&0xF, s.syncIRQOn[cpu], false)
	case addr == regIPCFIFOCNT+2:
		s.ipc.SetFIFOIRQEnable(cpu, v&0x4 != 0, v&0x1 != 0)
		if v&0x40 != 0 {
			s.ipc.ClearError(cpu)
		}
	case addr >= regIPCFIFOSEND && addr < regIPCFIFOSEND+4:
		s.accumSend[cpu] = setByteOf(s.accumSend[cpu], addr-regIPCFIFOSEND, v)
		if addr == regIPCFIFOSEND+3 {
			s.ipc.Send(cpu, s.accumSend[cpu])
		}
	case addr == regDIVCNT, addr == regDIVCNT+1:
		s.accumDIVCNT = setByteOf16(s.accumDIVCNT, addr-regDIVCNT, v)
		s.math.WriteDIVCNT(s.accumDIVCNT)
	case addr >= regDIVNUMER && addr < regDIVNUMER+8:
		s.accumNumer = setByteOf64(s.accumNumer, addr-regDIVNUMER, v)
		if addr == regDIVNUMER+7 {
			s.math.WriteNumer(s.accumNumer)
		}
	case addr >= regDIVDENOM && addr < regDIVDENOM+8:
		s.accumDenom = setByteOf64(s.accumDenom, addr-regDIVDENOM, v)
		if addr == regDIVDENOM+7 {
			s.math.WriteDenom(s.accumDenom)
		}
	case addr == regSQRTCNT:
		s.math.WriteSQRTCNT(v&1 != 0)
	case addr >= regSQRTPARAM && addr < regSQRTPARAM+8:
		s.accumSqrtParam = setByteOf64(s.accumSqrtParam, addr-regSQRTPARAM, v)
		if addr == regSQRTPARAM+7 {
			s.math.WriteSqrtParam(s.accumSqrtParam)
		}
	case addr >= regGXFIFO && addr < regGXFIFO+4:
		s.accumGXFIFO = setByteOf(s.accumGXFIFO, addr-regGXFIFO, v)
		if addr == regGXFIFO+3 && s.gpu != nil {
			s.gpu.WriteFIFO(s.accumGXFIFO)
		}
	case addr >= 0x04000440 && addr < 0x040005C8:
		s.accumPort = setByteOf(s.accumPort, addr&3, v)
		if addr&3 == 3 && s.gpu != nil {
			s.gpu.WritePort(addr-0x04000440, s.accumPort)
		}
	case addr == regGXSTAT, addr >= regGXSTAT && addr < regGXSTAT+4:
		if s.gpu != nil {
			s.gpu.WriteGXSTAT(uint32(v) << (8 * (addr - regGXSTAT)))
		}
	case addr == regDISP3DCNT, addr == regDISP3DCNT+1:
		s.accumDISP3DCNT = setByteOf16(s.accumDISP3DCNT, addr-regDISP3DCNT, v)
		s.disp3dcnt = s.accumDISP3DCNT
		if s.gpu != nil {
			s.gpu.WriteDISP3DCNT(s.disp3dcnt)
		}
	case addr == regAlphaRef:
		s.alphaTestRef = v & 0x1F
		if s.gpu != nil {
			s.gpu.WriteAlphaTestRef(s.alphaTestRef)
		}
	case addr >= regEdgeColor && addr < regEdgeColor+16:
		rel := addr - regEdgeColor
		idx := int(rel / 2)
		s.accumEdgeColor[idx] = setByteOf16(s.accumEdgeColor[idx], rel%2, v)
		if rel%2 == 1 && s.gpu != nil {
			s.gpu.WriteEdgeColor(idx, s.accumEdgeColor[idx])
		}
	case addr >= regToonTable && addr < regToonTable+64:
		rel := addr - regToonTable
		idx := int(rel / 2)
		s.accumToon[idx] = setByteOf16(s.accumToon[idx], rel%2, v)
		if rel%2 == 1 && s.gpu != nil {
			s.gpu.WriteToonTable(idx, s.accumToon[idx])
		}
	case addr >= dmaRegBase(cpu) && addr < dmaRegBase(cpu)+4*12:
		s.writeDMAReg(cpu, addr, v)
	case addr >= timerRegBase(cpu) && addr < timerRegBase(cpu)+16:
		s.writeTimerReg(cpu, addr, v)
	}
}

// bankLetterForOffset maps a VRAMCNT byte offset to its bank letter,
// skipping offset 7 (WRAMCNT) so 8 and 9 name banks H and I.
func bankLetterForOffset(off uint32) byte {
	if off >= 8 {
		off--
	}
	return byte('A' + off)
}

func byteOf(v uint32, i uint32) uint8   { return uint8(v >> (8 * i)) }
func byteOf64(v uint64, i uint32) uint8 { return uint8(v >> (8 * i)) }

func setByteOf(v uint32, i uint32, b uint8) uint32 {
	shift := 8 * i
	return (v &^ (0xFF << shift)) | uint32(b)<<shift
}

func setByteOf16(v uint16, i uint32, b uint8) uint16 {
	shift := 8 * i
	return (v &^ (0xFF << shift)) | uint16(b)<<shift
}

func setByteOf64(v uint64, i uint32, b uint8) uint64 {
	shift := 8 * i
	return (v &^ (0xFF << shift)) | uint64(b)<<shift
}

// --- DMA / Timer register windows ---

func dmaRegBase(cpu int) uint32 {
	if cpu == 0 {
		return 0x040000B0
	}
	return 0x040000B0
}

func timerRegBase(cpu int) uint32 { return 0x04000100 }

func (s *System) readDMAReg(cpu int, addr uint32) uint8 {
	rel := addr - dmaRegBase(cpu)
	ch := int(rel / 12)
	if ch > 3 {
		return 0
	}
	sub := rel % 12
	c := &s.dmaFor(cpu).Channels[ch]
	switch {
	case sub < 4:
		return byteOf(c.SrcAddr, sub)
	case sub < 8:
		return byteOf(c.DstAddr, sub-4)
	default:
		return byteOf(c.Control, sub-8)
	}
}

func (s *System) writeDMAReg(cpu int, addr uint32, v uint8) {
	rel := addr - dmaRegBase(cpu)
	ch := int(rel / 12)
	if ch > 3 {
		return
	}
	sub := rel % 12
	eng := s.dmaFor(cpu)
	c := &eng.Channels[ch]
	switch {
	case sub < 4:
		c.SrcAddr = setByteOf(c.SrcAddr, sub, v)
	case sub < 8:
		c.DstAddr = setByteOf(c.DstAddr, sub-4, v)
	default:
		newCtl := setByteOf(c.Control, sub-8, v)
		if sub-8 == 3 {
			eng.WriteControl(ch, newCtl)
		} else {
			c.Control = newCtl
		}
	}
}

func (s *System) readTimerReg(cpu int, addr uint32) uint8 {
	rel := addr - timerRegBase(cpu)
	idx := int(rel / 4)
	if idx > 3 {
		return 0
	}
	sub := rel % 4
	t := &s.timersFor(cpu).Timers[idx]
	switch sub {
	case 0:
		return byteOf(uint32(t.Counter()), 0)
	case 1:
		return byteOf(uint32(t.Counter()), 1)
	case 2:
		return t.Control
	default:
		return 0
	}
}

func (s *System) writeTimerReg(cpu int, addr uint32, v uint8) {
	rel := addr - timerRegBase(cpu)
	idx := int(rel / 4)
	if idx > 3 {
		return
	}
	sub := rel % 4
	ts := s.timersFor(cpu)
	switch sub {
	case 0:
		ts.Timers[idx].Reload = (ts.Timers[idx].Reload &^ 0xFF) | uint16(v)
	case 1:
		ts.Timers[idx].Reload = (ts.Timers[idx].Reload &^ 0xFF00) | uint16(v)<<8
	case 2:
		ts.WriteControl(idx, v)
	}
}

var _ mem.IOHandler = (*System)(nil)
