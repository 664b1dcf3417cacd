// filesystem.go - Guest syscall bridge: a newlib-style FS ABI exposed over
// the four-word MMIO command block at FS_MODE_FD.
//
// A write to the mode field with a non-off value dispatches synchronously
// (there is no async FS), writes its result into data1/data2, and clears
// mode back to off. Flags, whence and errno are each a fixed bijective
// table between the guest's newlib-style numbering and the host's; unknown
// host errno values surface to the guest as ENOSYS. Ported from the
// open/read/write/seek/close dispatch in filesystem.cpp, extended with
// fstat/isatty/link/unlink/mkdir per SPEC_FULL.md §4.5, and restructured
// around *os.File instead of a raw host fd/FILE* pair.

package main

import (
	"encoding/binary"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"
)

type fsMode uint16

const (
	fsOff fsMode = iota
	fsOpen
	fsClose
	fsRead
	fsWrite
	fsSeek
	fsFstat
	fsIsatty
	fsLink
	fsUnlink
	fsMkdir
)

// Guest newlib-style open() flag bits, distinct from the host's.
const (
	guestORdonly = 0x0000
	guestOWronly = 0x0001
	guestORdwr   = 0x0002
	guestOAppend = 0x0008
	guestOCreat  = 0x0200
	guestOTrunc  = 0x0400
	guestOExcl   = 0x0800
)

// Guest newlib-style whence values (match POSIX numbering, kept distinct to
// document that the mapping is a deliberate, not incidental, choice).
const (
	guestSeekSet = 0
	guestSeekCur = 1
	guestSeekEnd = 2
)

// Guest errno values for the subset of failures this bridge can produce.
const (
	guestEPERM     = 1
	guestENOENT    = 2
	guestEBADF     = 9
	guestEACCES    = 13
	guestEEXIST    = 17
	guestENOTDIR   = 20
	guestEISDIR    = 21
	guestEINVAL    = 22
	guestENOSYS    = 88
	guestEOVERFLOW = 139
)

var hostErrnoToGuest = map[syscall.Errno]uint32{
	syscall.EPERM:   guestEPERM,
	syscall.ENOENT:  guestENOENT,
	syscall.EBADF:   guestEBADF,
	syscall.EACCES:  guestEACCES,
	syscall.EEXIST:  guestEEXIST,
	syscall.ENOTDIR: guestENOTDIR,
	syscall.EISDIR:  guestEISDIR,
	syscall.EINVAL:  guestEINVAL,
}

func translateHostErr(err error) uint32 {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if perr, ok := err.(*os.PathError); ok {
		if e, ok := perr.Err.(syscall.Errno); ok {
			errno = e
		}
	} else if lerr, ok := err.(*os.LinkError); ok {
		if e, ok := lerr.Err.(syscall.Errno); ok {
			errno = e
		}
	} else if e, ok := err.(syscall.Errno); ok {
		errno = e
	}
	if g, ok := hostErrnoToGuest[errno]; ok {
		return g
	}
	return guestENOSYS
}

// translateOpenFlags converts the guest's newlib-style open flags to the
// host's os.OpenFile flags. Returns ok=false when the access-mode bits are
// not one of RDONLY/WRONLY/RDWR, surfaced to the guest as ENOSYS per
// filesystem.cpp's convert_flags; other unrecognized bits are ignored.
func translateOpenFlags(guestFlags uint32) (int, bool) {
	var host int
	switch guestFlags & 0x3 {
	case guestORdonly:
		host = os.O_RDONLY
	case guestOWronly:
		host = os.O_WRONLY
	case guestORdwr:
		host = os.O_RDWR
	default:
		return 0, false
	}
	if guestFlags&guestOAppend != 0 {
		host |= os.O_APPEND
	}
	if guestFlags&guestOCreat != 0 {
		host |= os.O_CREATE
	}
	if guestFlags&guestOTrunc != 0 {
		host |= os.O_TRUNC
	}
	if guestFlags&guestOExcl != 0 {
		host |= os.O_EXCL
	}
	return host, true
}

func translateWhence(guestWhence uint32) (int, bool) {
	switch guestWhence {
	case guestSeekSet:
		return os.SEEK_SET, true
	case guestSeekCur:
		return os.SEEK_CUR, true
	case guestSeekEnd:
		return os.SEEK_END, true
	default:
		return 0, false
	}
}

// fsFile is one file-table slot. Slots 0/1/2 wrap stdin/stdout/stderr and
// are never host-closed by Close.
type fsFile struct {
	f      *os.File
	open   bool
	stdLoc bool
}

// Filesystem is the guest-facing bridge: it owns the file table and the
// MMIO write hook that dispatches each operation.
type Filesystem struct {
	mem   *Memory
	files []fsFile
}

func NewFilesystem(mem *Memory) *Filesystem {
	fs := &Filesystem{mem: mem}
	fs.files = []fsFile{
		{f: os.Stdin, open: true, stdLoc: true},
		{f: os.Stdout, open: true, stdLoc: true},
		{f: os.Stderr, open: true, stdLoc: true},
	}
	return fs
}

// Install registers the mode-word write hook. data1/data2/data3 are read
// via unchecked access since the bridge runs outside normal MMIO dispatch
// re-entry. Only the low 16 bits (mode) of the mode word are read; every
// operation that takes an fd reads it from data1, per the per-operation
// convention documented on each do* method below.
func (fs *Filesystem) Install() error {
	return fs.mem.AddWriteHook(FS_MODE_FD, func(old, new uint32) uint32 {
		mode := fsMode(new & 0xFFFF)
		if mode == fsOff {
			return new
		}
		fs.dispatch(mode)
		return new &^ 0xFFFF // clear mode back to off; the upper 16 bits are kept as written
	})
}

func (fs *Filesystem) data1() uint32 { return fs.mem.ReadUncheckedU32(FS_DATA1) }
func (fs *Filesystem) data2() uint32 { return fs.mem.ReadUncheckedU32(FS_DATA2) }
func (fs *Filesystem) data3() uint32 { return fs.mem.ReadUncheckedU32(FS_DATA3) }

func (fs *Filesystem) setResult(result, errno uint32) {
	fs.mem.WriteUncheckedU32(FS_DATA1, result)
	fs.mem.WriteUncheckedU32(FS_DATA2, errno)
}

func (fs *Filesystem) readCString(addr uint32) string {
	var buf []byte
	for {
		b := fs.mem.ReadUncheckedBytes(addr, 1)
		if b[0] == 0 {
			break
		}
		buf = append(buf, b[0])
		addr++
	}
	return string(buf)
}

func (fs *Filesystem) dispatch(mode fsMode) {
	switch mode {
	case fsOpen:
		fs.doOpen()
	case fsClose:
		fs.doClose()
	case fsRead:
		fs.doRead()
	case fsWrite:
		fs.doWrite()
	case fsSeek:
		fs.doSeek()
	case fsFstat:
		fs.doFstat()
	case fsIsatty:
		fs.doIsatty()
	case fsLink:
		fs.doLink()
	case fsUnlink:
		fs.doUnlink()
	case fsMkdir:
		fs.doMkdir()
	}
}

// doOpen: data1=path ptr, data2=guest flags, data3=guest mode. Result:
// data1=fd (0 on failure; real fds start at 3, stdin/out/err occupy 0-2),
// data2=errno.
func (fs *Filesystem) doOpen() {
	path := fs.readCString(fs.data1())
	hostFlags, ok := translateOpenFlags(fs.data2())
	if !ok {
		fs.setResult(0, guestENOSYS)
		return
	}
	f, err := os.OpenFile(path, hostFlags, os.FileMode(fs.data3()&0777))
	if err != nil {
		fs.setResult(0, translateHostErr(err))
		return
	}
	fs.files = append(fs.files, fsFile{f: f, open: true})
	fs.setResult(uint32(len(fs.files)-1), 0)
}

func (fs *Filesystem) lookup(fd uint32) (*fsFile, bool) {
	if fd >= uint32(len(fs.files)) {
		return nil, false
	}
	entry := &fs.files[fd]
	if !entry.open {
		return nil, false
	}
	return entry, true
}

// doClose: data1=fd. Never closes the host stdin/stdout/stderr handles.
func (fs *Filesystem) doClose() {
	entry, ok := fs.lookup(fs.data1())
	if !ok {
		fs.setResult(0xFFFFFFFF, guestEBADF)
		return
	}
	if !entry.stdLoc {
		entry.f.Close()
	}
	entry.open = false
	fs.setResult(0, 0)
}

// doRead: data1=fd, data2=guest ptr, data3=count.
func (fs *Filesystem) doRead() {
	entry, ok := fs.lookup(fs.data1())
	if !ok {
		fs.setResult(0, guestEBADF)
		return
	}
	cnt := fs.data3()
	buf := make([]byte, cnt)
	n, err := entry.f.Read(buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF && n == 0 {
		fs.setResult(0, translateHostErr(err))
		return
	}
	fs.mem.WriteUncheckedBytes(fs.data2(), buf[:n])
	fs.setResult(uint32(n), 0)
}

// doWrite: data1=fd, data2=guest ptr, data3=count.
func (fs *Filesystem) doWrite() {
	entry, ok := fs.lookup(fs.data1())
	if !ok {
		fs.setResult(0, guestEBADF)
		return
	}
	cnt := fs.data3()
	buf := fs.mem.ReadUncheckedBytes(fs.data2(), int(cnt))
	n, err := entry.f.Write(buf)
	if err != nil {
		fs.setResult(0, translateHostErr(err))
		return
	}
	fs.setResult(uint32(n), 0)
}

// doSeek: data1=fd, data2=off32 (signed), data3=guest whence. If the
// resulting host offset does not fit in signed 32 bits, the seek is
// reversed and EOVERFLOW is reported.
func (fs *Filesystem) doSeek() {
	entry, ok := fs.lookup(fs.data1())
	if !ok {
		fs.setResult(0, guestEBADF)
		return
	}
	whence, ok := translateWhence(fs.data3())
	if !ok {
		fs.setResult(0, guestEINVAL)
		return
	}
	oldPos, err := entry.f.Seek(0, os.SEEK_CUR)
	if err != nil {
		fs.setResult(0, translateHostErr(err))
		return
	}
	offset := int64(int32(fs.data2()))
	newPos, err := entry.f.Seek(offset, whence)
	if err != nil {
		fs.setResult(0, translateHostErr(err))
		return
	}
	if newPos > int64(int32(0x7FFFFFFF)) || newPos < int64(int32(-0x80000000)) {
		entry.f.Seek(oldPos, os.SEEK_SET)
		fs.setResult(0, guestEOVERFLOW)
		return
	}
	fs.setResult(uint32(int32(newPos)), 0)
}

// doFstat: data1=fd, data2=guest stat ptr. Packs the guest stat layout
// from SPEC_FULL.md §6; any field overflowing its guest width fails with
// EOVERFLOW except st_ino, which silently becomes 0.
func (fs *Filesystem) doFstat() {
	entry, ok := fs.lookup(fs.data1())
	if !ok {
		fs.setResult(0, guestEBADF)
		return
	}
	info, err := entry.f.Stat()
	if err != nil {
		fs.setResult(0, translateHostErr(err))
		return
	}
	sysStat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		fs.setResult(0, guestENOSYS)
		return
	}
	buf, overflow := packGuestStat(sysStat)
	if overflow {
		fs.setResult(0, guestEOVERFLOW)
		return
	}
	fs.mem.WriteUncheckedBytes(fs.data2(), buf)
	fs.setResult(0, 0)
}

// guestStatSize is the packed byte length of the layout in SPEC_FULL.md §6.
const guestStatSize = 64

// packGuestStat packs the subset of host stat fields the guest ABI cares
// about into the little-endian layout fixed by SPEC_FULL.md §6. Returns
// overflow=true if any field besides st_ino does not fit its guest width;
// st_ino is silently truncated to 0 instead of failing, per spec.
func packGuestStat(st *syscall.Stat_t) ([]byte, bool) {
	if st.Dev > 0xFFFF || st.Nlink > 0xFFFF || st.Uid > 0xFFFF || st.Gid > 0xFFFF || st.Rdev > 0xFFFF {
		return nil, true
	}
	if st.Mode > 0xFFFFFFFF || st.Size > 0xFFFFFFFF || st.Size < 0 || st.Blksize < 0 || st.Blksize > 0xFFFFFFFF || st.Blocks < 0 || st.Blocks > 0xFFFFFFFF {
		return nil, true
	}

	var ino uint16
	if st.Ino <= 0xFFFF {
		ino = uint16(st.Ino)
	}

	buf := make([]byte, guestStatSize)
	o := 0
	put16 := func(v uint16) { binary.LittleEndian.PutUint16(buf[o:o+2], v); o += 2 }
	put32 := func(v uint32) { binary.LittleEndian.PutUint32(buf[o:o+4], v); o += 4 }

	put16(uint16(st.Dev))
	put16(ino)
	put32(uint32(st.Mode))
	put16(uint16(st.Nlink))
	put16(uint16(st.Uid))
	put16(uint16(st.Gid))
	put16(uint16(st.Rdev))
	put32(uint32(st.Size))
	put32(uint32(st.Atim.Sec))
	put32(uint32(int64(st.Atim.Sec) >> 32))
	put32(uint32(st.Atim.Nsec))
	put32(uint32(st.Mtim.Sec))
	put32(uint32(int64(st.Mtim.Sec) >> 32))
	put32(uint32(st.Mtim.Nsec))
	put32(uint32(st.Ctim.Sec))
	put32(uint32(int64(st.Ctim.Sec) >> 32))
	put32(uint32(st.Ctim.Nsec))
	put32(uint32(st.Blksize))
	put32(uint32(st.Blocks))

	return buf, false
}

// doIsatty: data1=fd. Result: data1=1 if a tty, else 0; data2 is always 0
// since the host call used to determine this (term.IsTerminal) has no
// failure mode the guest ABI needs to observe.
func (fs *Filesystem) doIsatty() {
	entry, ok := fs.lookup(fs.data1())
	if !ok {
		fs.setResult(0, guestEBADF)
		return
	}
	if term.IsTerminal(int(entry.f.Fd())) {
		fs.setResult(1, 0)
		return
	}
	fs.setResult(0, 0)
}

// doLink: data1=old path ptr, data2=new path ptr.
func (fs *Filesystem) doLink() {
	oldPath := fs.readCString(fs.data1())
	newPath := fs.readCString(fs.data2())
	if err := os.Link(oldPath, newPath); err != nil {
		fs.setResult(0xFFFFFFFF, translateHostErr(err))
		return
	}
	fs.setResult(0, 0)
}

// doUnlink: data1=path ptr.
func (fs *Filesystem) doUnlink() {
	path := fs.readCString(fs.data1())
	if err := os.Remove(path); err != nil {
		fs.setResult(0xFFFFFFFF, translateHostErr(err))
		return
	}
	fs.setResult(0, 0)
}

// doMkdir: data1=path ptr, data2=guest mode.
func (fs *Filesystem) doMkdir() {
	path := fs.readCString(fs.data1())
	if err := os.Mkdir(path, os.FileMode(fs.data2()&0777)); err != nil {
		fs.setResult(0xFFFFFFFF, translateHostErr(err))
		return
	}
	fs.setResult(0, 0)
}
