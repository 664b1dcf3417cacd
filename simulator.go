// simulator.go - The LC-3.2 register file and single-step interpreter.
//
// Simulator.Step fetches one halfword at PC, decodes it, dispatches on
// kind, and updates the condition code from the destination register for
// every kind except LEA (see SPEC_FULL.md §9). Errors from Step abort the
// current program; the scanline scheduler returns them to main, which
// reports them alongside a register dump.

package main

import (
	"fmt"
	"os"
)

// SimErrorKind enumerates the failure modes Step can return.
type SimErrorKind int

const (
	ErrUnknownOpcode SimErrorKind = iota
	ErrUnimplementedInstruction
	ErrHalted
	ErrUnknownTrap
	ErrCrashTrap
)

type SimError struct {
	Kind SimErrorKind
	Msg  string
}

func (e *SimError) Error() string { return e.Msg }

func simErr(kind SimErrorKind, format string, args ...interface{}) *SimError {
	return &SimError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Simulator holds the eight general-purpose registers, the program
// counter, the 3-bit condition code, and a reference to the Memory it
// executes against. It owns no goroutines; Step is called synchronously
// from the scanline scheduler.
type Simulator struct {
	Regs    [8]uint32
	PC      uint32
	CC      uint8
	Halted  bool

	mem    *Memory
	input  *InputQueue
	stdout *os.File
	logger *Logger
}

// NewSimulator constructs a Simulator whose registers and CC are seeded
// from the same deterministic LCG used for memory initialization, forcing
// guest programs to explicitly initialize their own state.
func NewSimulator(mem *Memory, input *InputQueue, logger *Logger, seed uint32, entry uint32) *Simulator {
	s := &Simulator{mem: mem, input: input, stdout: os.Stdout, logger: logger, PC: entry}
	state := seed
	next := func() uint32 {
		state = (1103515245*state + 12345) & 0x7FFFFFFF
		return state
	}
	for i := range s.Regs {
		s.Regs[i] = next()
	}
	s.CC = ccFromValue(next())
	return s
}

// Step executes exactly one instruction and reports whether the machine
// should keep running. A non-nil error means execution must stop.
func (s *Simulator) Step() (bool, error) {
	if s.Halted {
		return false, simErr(ErrHalted, "step on halted simulator")
	}

	word, err := s.mem.ReadU16(s.PC)
	if err != nil {
		return false, err
	}
	inst, err := Decode(word)
	if err != nil {
		return false, err
	}
	s.PC += 2

	switch inst.Kind {
	case KindADD:
		v := s.Regs[inst.SR1] + s.operand2(inst)
		s.setReg(inst.DR, v)
	case KindAND:
		v := s.Regs[inst.SR1] & s.operand2(inst)
		s.setReg(inst.DR, v)
	case KindXOR:
		v := s.Regs[inst.SR1] ^ s.operand2(inst)
		s.setReg(inst.DR, v)
	case KindBR:
		if inst.Cond&s.CC != 0 {
			s.PC += inst.PCOffset9 * 2
		}
	case KindJMP:
		s.PC = s.Regs[inst.BaseR]
	case KindJSR:
		s.Regs[7] = s.PC
		s.PC += inst.PCOffset11 * 2
	case KindJSRR:
		s.Regs[7] = s.PC
		s.PC = s.Regs[inst.BaseR]
	case KindLDB:
		v, err := s.mem.ReadU8(s.Regs[inst.BaseR] + inst.Offset6)
		if err != nil {
			return false, err
		}
		s.setReg(inst.DR, sext(uint32(v), 8))
	case KindLDH:
		v, err := s.mem.ReadU16(s.Regs[inst.BaseR] + inst.Offset6*2)
		if err != nil {
			return false, err
		}
		s.setReg(inst.DR, sext(uint32(v), 16))
	case KindLDW:
		v, err := s.mem.ReadU32(s.Regs[inst.BaseR] + inst.Offset6*4)
		if err != nil {
			return false, err
		}
		s.setReg(inst.DR, v)
	case KindLEA:
		// CC deliberately not updated; see SPEC_FULL.md §9.
		s.Regs[inst.DR] = s.PC + inst.PCOffset9
	case KindRTI:
		return false, simErr(ErrUnimplementedInstruction, "RTI is reserved and not implemented")
	case KindLSHF:
		amt := s.shiftAmount(inst)
		s.setReg(inst.DR, s.Regs[inst.SR1]<<amt)
	case KindRSHFL:
		amt := s.shiftAmount(inst)
		s.setReg(inst.DR, s.Regs[inst.SR1]>>amt)
	case KindRSHFA:
		amt := s.shiftAmount(inst)
		s.setReg(inst.DR, uint32(int32(s.Regs[inst.SR1])>>amt))
	case KindSTB:
		if err := s.mem.WriteU8(s.Regs[inst.BaseR]+inst.Offset6, uint8(s.Regs[inst.SR])); err != nil {
			return false, err
		}
	case KindSTH:
		if err := s.mem.WriteU16(s.Regs[inst.BaseR]+inst.Offset6*2, uint16(s.Regs[inst.SR])); err != nil {
			return false, err
		}
	case KindSTW:
		if err := s.mem.WriteU32(s.Regs[inst.BaseR]+inst.Offset6*4, s.Regs[inst.SR]); err != nil {
			return false, err
		}
	case KindTRAP:
		if err := s.trap(inst.Trap); err != nil {
			return false, err
		}
	default:
		return false, simErr(ErrUnknownOpcode, "unhandled instruction kind %d", inst.Kind)
	}

	return !s.Halted, nil
}

func (s *Simulator) operand2(inst Instruction) uint32 {
	if inst.Imm {
		return inst.Imm5
	}
	return s.Regs[inst.SR2]
}

func (s *Simulator) shiftAmount(inst Instruction) uint32 {
	if inst.Imm {
		return inst.Amount
	}
	return s.Regs[inst.SR2] & 0x1F
}

func (s *Simulator) setReg(r uint8, val uint32) {
	s.Regs[r] = val
	s.CC = ccFromValue(val)
}

func (s *Simulator) trap(v TrapVector) error {
	switch v {
	case TrapGETC:
		s.Regs[0] = uint32(s.input.Poll())
	case TrapOUT:
		s.stdout.Write([]byte{byte(s.Regs[0])})
	case TrapPUTS:
		addr := s.Regs[0]
		for {
			b, err := s.mem.ReadU8(addr)
			if err != nil {
				return err
			}
			if b == 0 {
				break
			}
			s.stdout.Write([]byte{b})
			addr++
		}
	case TrapIN:
		s.stdout.Write([]byte("> "))
		c := s.input.Poll()
		s.stdout.Write([]byte{c, '\n'})
		s.Regs[0] = uint32(c)
	case TrapHALT:
		s.Halted = true
	case TrapBREAK:
		s.logger.Infof("BREAK encountered, dumping state:")
		s.dumpState()
	case TrapCRASH:
		return simErr(ErrCrashTrap, "executed CRASH trap at PC=0x%08X", s.PC-2)
	default:
		return simErr(ErrUnknownTrap, "unknown trap vector 0x%02X", uint8(v))
	}
	return nil
}

// dumpState prints PC, CC and the register file at INFO level; used by the
// BREAK trap.
func (s *Simulator) dumpState() {
	s.logger.Infof("    PC: 0x%08X", s.PC)
	cc := ""
	if s.CC&0b100 != 0 {
		cc += "n"
	}
	if s.CC&0b010 != 0 {
		cc += "z"
	}
	if s.CC&0b001 != 0 {
		cc += "p"
	}
	s.logger.Infof("    CC: %s", cc)
	for i, r := range s.Regs {
		s.logger.Infof("    R%d: 0x%08X", i, r)
	}
}
