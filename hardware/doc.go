// Package hardware is the base package for the ZX Spectrum machine
// simulation. Its sub-packages cover the clock domain, the memory model,
// contention tables, the bus device chain, the ULA core and the video and
// AY sound sub-systems.
//
// There is no VCS-style "root" type here: a host assembles the pieces it
// needs (a Cpu, a ZxMemory, a contention table for its chosen variant, a
// Ula wired to a bus device chain) and drives it one frame at a time. The
// packages are designed to be used independently of each other wherever
// that's useful — the video renderer, for instance, only needs the frame
// cache the ULA produces, not the ULA itself.
package hardware
