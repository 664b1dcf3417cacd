//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// Page initialization and MMIO dispatch are only validated against a
// little-endian host; ports to other byte orders need that verified first.
var _ = "lc32sim requires a little-endian host architecture" + 1
