// commands.go - GXFIFO command-id constants

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package gpu

// Command ids as they appear in the packed command register and the
// per-command MMIO ports, matching the documented GXFIFO opcode space.
const (
	cmdSetMatrixMode  = 0x10
	cmdPushMatrix     = 0x11
	cmdPopMatrix      = 0x12
	cmdStoreMatrix    = 0x13
	cmdRestoreMatrix  = 0x14
	cmdIdentity       = 0x15
	cmdLoad4x4        = 0x16
	cmdLoad4x3        = 0x17
	cmdMul4x4         = 0x18
	cmdMul4x3         = 0x19
	cmdMul3x3         = 0x1A
	cmdScale          = 0x1B
	cmdTranslate      = 0x1C
	cmdSetColor       = 0x20
	cmdSetNormal      = 0x21
	cmdSetTexCoord    = 0x22
	cmdVtx16          = 0x23
	cmdVtx10          = 0x24
	cmdVtxXY          = 0x25
	cmdVtxXZ          = 0x26
	cmdVtxYZ          = 0x27
	cmdVtxDiff        = 0x28
	cmdPolygonAttr    = 0x29
	cmdTexImageParam  = 0x2A
	cmdTexPaletteBase = 0x2B
	cmdMaterial0      = 0x30 // diffuse/ambient
	cmdMaterial1      = 0x31 // specular/emissive
	cmdLightVector    = 0x32
	cmdLightColor     = 0x33
	cmdShininess      = 0x34
	cmdBeginVtxs      = 0x40
	cmdEndVtxs        = 0x41
	cmdSwapBuffers    = 0x50
	cmdViewport       = 0x60
	cmdBoxTest        = 0x70
	cmdPosTest        = 0x71
	cmdVecTest        = 0x72
)
