package main

import "testing"

func TestDecodeAddImmediate(t *testing.T) {
	// ADD R0, R0, #13 -> 0001 000 000 1 01101
	word := uint16(0b0001_000_000_1_01101)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindADD {
		t.Fatalf("Kind = %v, want KindADD", inst.Kind)
	}
	if inst.DR != 0 || inst.SR1 != 0 {
		t.Fatalf("DR=%d SR1=%d, want 0,0", inst.DR, inst.SR1)
	}
	if !inst.Imm {
		t.Fatal("expected immediate form")
	}
	if inst.Imm5 != 13 {
		t.Fatalf("Imm5 = %d, want 13", inst.Imm5)
	}
}

func TestDecodeAddNegativeImmediate(t *testing.T) {
	// ADD R0, R0, #-1 -> imm5 bits = 11111
	word := uint16(0b0001_000_000_1_11111)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Imm5 != 0xFFFFFFFF {
		t.Fatalf("Imm5 = 0x%X, want 0xFFFFFFFF", inst.Imm5)
	}
}

func TestDecodeBR(t *testing.T) {
	// BR n,z,p pcoffset9=+6 -> 0000 111 000000110
	word := uint16(0b0000_111_000000110)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindBR {
		t.Fatalf("Kind = %v, want KindBR", inst.Kind)
	}
	if inst.Cond != 0b111 {
		t.Fatalf("Cond = %03b, want 111", inst.Cond)
	}
	if inst.PCOffset9 != 6 {
		t.Fatalf("PCOffset9 = %d, want 6", inst.PCOffset9)
	}
}

func TestDecodeJSR(t *testing.T) {
	// JSR pcoffset11=+3 -> 0100 1 00000000011
	word := uint16(0b0100_1_00000000011)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindJSR {
		t.Fatalf("Kind = %v, want KindJSR", inst.Kind)
	}
	if inst.PCOffset11 != 3 {
		t.Fatalf("PCOffset11 = %d, want 3", inst.PCOffset11)
	}
}

func TestDecodeJSRR(t *testing.T) {
	// JSRR baseR=R3 -> 0100 0 00 011 000000
	word := uint16(0b0100_0_00_011_000000)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindJSRR {
		t.Fatalf("Kind = %v, want KindJSRR", inst.Kind)
	}
	if inst.BaseR != 3 {
		t.Fatalf("BaseR = %d, want 3", inst.BaseR)
	}
}

func TestDecodeLEA(t *testing.T) {
	// LEA R2, #6 -> 1110 010 000000110
	word := uint16(0b1110_010_000000110)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindLEA {
		t.Fatalf("Kind = %v, want KindLEA", inst.Kind)
	}
	if inst.DR != 2 {
		t.Fatalf("DR = %d, want 2", inst.DR)
	}
	if inst.PCOffset9 != 6 {
		t.Fatalf("PCOffset9 = %d, want 6", inst.PCOffset9)
	}
}

func TestDecodeRTI(t *testing.T) {
	inst, err := Decode(0b1000_000000000000)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindRTI {
		t.Fatalf("Kind = %v, want KindRTI", inst.Kind)
	}
}

func TestDecodeTrap(t *testing.T) {
	inst, err := Decode(0b1111_0000_00100101)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindTRAP {
		t.Fatalf("Kind = %v, want KindTRAP", inst.Kind)
	}
	if inst.Trap != TrapHALT {
		t.Fatalf("Trap = 0x%X, want 0x%X", inst.Trap, TrapHALT)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	// Every 4-bit pattern is a valid opcode in the LC-3.2 table; this test
	// documents that Decode has no "default: unknown" path left uncovered
	// by construction, so there is nothing to assert an error for here.
	// Retained as a marker in case the opcode table changes.
	t.Skip("all 16 opcodes are assigned kinds; nothing to decode as unknown")
}

// decodeShift's fork point: bit5 selects the immediate form (amount =
// amount3+1, from a 3-bit field); bits 4/3 select LSHF/RSHFL/RSHFA in both forms.
// This is the historical fork point spec.md's Design Note §9 flags and
// resolves explicitly.
func TestDecodeShiftImmediateLeft(t *testing.T) {
	// LSHF R1,R2,#3 (imm, bit4=0,bit3=0) -> 1101 001 010 1 00 011
	word := uint16(0b1101_001_010_1_00_011)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindLSHF {
		t.Fatalf("Kind = %v, want KindLSHF", inst.Kind)
	}
	if !inst.Imm {
		t.Fatal("expected immediate form (bit5 set)")
	}
	if inst.Amount != 4 {
		t.Fatalf("Amount = %d, want 4 (amount3+1)", inst.Amount)
	}
	if inst.DR != 1 || inst.SR1 != 2 {
		t.Fatalf("DR=%d SR1=%d, want 1,2", inst.DR, inst.SR1)
	}
}

func TestDecodeShiftImmediateRightLogical(t *testing.T) {
	// RSHFL bit4=0,bit3=1 -> 1101 xxx xxx 1 01 000
	word := uint16(0b1101_000_000_1_01_000)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindRSHFL {
		t.Fatalf("Kind = %v, want KindRSHFL", inst.Kind)
	}
}

func TestDecodeShiftImmediateRightArithmetic(t *testing.T) {
	// RSHFA bit4=1 -> 1101 xxx xxx 1 1x 000
	word := uint16(0b1101_000_000_1_10_000)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Kind != KindRSHFA {
		t.Fatalf("Kind = %v, want KindRSHFA", inst.Kind)
	}
}

func TestDecodeShiftRegisterForm(t *testing.T) {
	// Non-immediate form: SR2 supplies the runtime shift amount.
	word := uint16(0b1101_001_010_0_00_101)
	inst, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Imm {
		t.Fatal("expected register form (bit5 clear)")
	}
	if inst.SR2 != 5 {
		t.Fatalf("SR2 = %d, want 5", inst.SR2)
	}
}
