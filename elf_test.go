package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeTestELF builds a minimal one-segment 32-bit LE ET_EXEC file at path.
func writeTestELF(t *testing.T, path string, segData []byte, filesz, memsz uint32) {
	t.Helper()

	var buf bytes.Buffer
	ident := [16]byte{elfMagic0, elfMagic1, elfMagic2, elfMagic3, elfClass32, elfDataLSB, elfVersionCur}
	buf.Write(ident[:])

	const ehsize = 36 // sizeof(ELFHeader) excluding ident
	const phentsize = 32
	hdr := ELFHeader{
		Type:      etExec,
		Machine:   0,
		Version:   1,
		Entry:     0x3000,
		Phoff:     16 + ehsize,
		Shoff:     0,
		Flags:     0,
		Ehsize:    16 + ehsize,
		Phentsize: phentsize,
		Phnum:     1,
		Shentsize: 0,
		Shnum:     0,
		Shstrndx:  0,
	}
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("binary.Write(header): %v", err)
	}

	ph := ProgramHeader{
		Type:   ptLoad,
		Offset: 16 + ehsize + phentsize,
		Vaddr:  0x3000,
		Paddr:  0x3000,
		Filesz: filesz,
		Memsz:  memsz,
		Flags:  5,
		Align:  4,
	}
	if err := binary.Write(&buf, binary.LittleEndian, &ph); err != nil {
		t.Fatalf("binary.Write(program header): %v", err)
	}

	buf.Write(segData)

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
}

func TestELFLoadSegmentsZerosBSSTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guest.elf")
	writeTestELF(t, path, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 4, 8)

	ef, err := OpenELF(path)
	if err != nil {
		t.Fatalf("OpenELF: %v", err)
	}
	defer ef.Close()

	mem := NewMemory(DefaultMemoryConfig(), 1)
	entry, err := ef.LoadSegments(mem)
	if err != nil {
		t.Fatalf("LoadSegments: %v", err)
	}
	if entry != 0x3000 {
		t.Fatalf("entry = 0x%X, want 0x3000", entry)
	}

	want := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0, 0, 0, 0}
	got := mem.ReadUncheckedBytes(0x3000, 8)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = 0x%X, want 0x%X", i, got[i], want[i])
		}
	}
}

func TestELFRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notelf.bin")
	if err := os.WriteFile(path, []byte("not an elf file at all"), 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, err := OpenELF(path); err == nil {
		t.Fatal("OpenELF should reject bad magic")
	}
}

func TestELFRejectsNonExecType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.elf")
	writeTestELF(t, path, []byte{1, 2, 3, 4}, 4, 4)

	// Flip e_type from ET_EXEC to ET_DYN (3) in place.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile: %v", err)
	}
	binary.LittleEndian.PutUint16(raw[16:18], 3)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	if _, err := OpenELF(path); err == nil {
		t.Fatal("OpenELF should reject a non-ET_EXEC object")
	}
}

func TestELFProgramHeaderOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guest.elf")
	writeTestELF(t, path, []byte{1, 2, 3, 4}, 4, 4)
	ef, err := OpenELF(path)
	if err != nil {
		t.Fatalf("OpenELF: %v", err)
	}
	defer ef.Close()

	if _, err := ef.ProgramHeader(5); err == nil {
		t.Fatal("ProgramHeader(5) should fail: only one program header exists")
	}
}
