// Package h5io reads and writes the legacy HDF5 profile used by MTS rig
// logs: superblock version 0, version 1 object headers, symbol-table
// groups, chunked datasets with the deflate filter, and version 1 compound
// datatypes.
//
// The package is deliberately narrow. Hierarchy walking, float dataset
// reads, and attribute reads go through github.com/scigolib/hdf5; h5io owns
// only what that library cannot do from the outside: writing the legacy
// profile, and parsing compound tables whose string members are not in
// trailing position.
package h5io

import "encoding/binary"

// File signature ("\x89HDF\r\n\x1a\n").
var signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

const (
	undefAddr = 0xFFFFFFFFFFFFFFFF

	// Object header message types.
	msgNIL            = 0x0000
	msgDataspace      = 0x0001
	msgDatatype       = 0x0003
	msgLayout         = 0x0008
	msgFilterPipeline = 0x000B
	msgAttribute      = 0x000C
	msgSymbolTable    = 0x0011

	// Datatype classes.
	ClassFixed    = 0
	ClassFloat    = 1
	ClassString   = 3
	ClassCompound = 6

	// Data layout classes (version 3 layout message).
	layoutContiguous = 1
	layoutChunked    = 2

	filterDeflate = 1

	// B-tree order for symbol-table groups. 2K children per node, 2K+1
	// keys, same as the C library default.
	groupBTreeK = 16

	snodCapacity = 2 * groupBTreeK
)

var le = binary.LittleEndian

// pad8 rounds n up to the next multiple of 8.
func pad8(n int) int {
	return (n + 7) &^ 7
}

// encodeFloat64Type encodes an IEEE 754 little-endian float64 datatype
// message (class 1, version 1).
func encodeFloat64Type() []byte {
	buf := make([]byte, 20)
	// Class bit field: little-endian, implied-set normalization, sign at
	// bit 63.
	le.PutUint32(buf[0:4], uint32(ClassFloat)|1<<4|0x3F20<<8)
	le.PutUint32(buf[4:8], 8)
	// Properties: bit offset, precision, exponent loc/size, mantissa
	// loc/size, exponent bias.
	le.PutUint16(buf[8:10], 0)
	le.PutUint16(buf[10:12], 64)
	buf[12] = 52
	buf[13] = 11
	buf[14] = 0
	buf[15] = 52
	le.PutUint32(buf[16:20], 1023)
	return buf
}

// encodeFixedType encodes a signed little-endian integer datatype message
// of the given byte size (class 0, version 1).
func encodeFixedType(size uint32) []byte {
	buf := make([]byte, 12)
	// Bit 3 of the class bit field marks the type as signed.
	le.PutUint32(buf[0:4], uint32(ClassFixed)|1<<4|0x08<<8)
	le.PutUint32(buf[4:8], size)
	le.PutUint16(buf[8:10], 0)
	le.PutUint16(buf[10:12], uint16(size*8))
	return buf
}

// encodeStringType encodes a fixed-length, null-terminated ASCII string
// datatype message (class 3, version 1). String datatypes carry no
// property bytes.
func encodeStringType(size uint32) []byte {
	buf := make([]byte, 8)
	le.PutUint32(buf[0:4], uint32(ClassString)|1<<4)
	le.PutUint32(buf[4:8], size)
	return buf
}

// memberTypeFor returns the encoded datatype message for a compound member.
func memberTypeFor(f Field) []byte {
	switch f.Class {
	case ClassFixed:
		return encodeFixedType(f.Size)
	case ClassFloat:
		return encodeFloat64Type()
	default:
		return encodeStringType(f.Size)
	}
}

// encodeCompoundType encodes a version 1 compound datatype message. Member
// names are null-terminated and padded to 8 bytes, followed by the byte
// offset, 28 bytes of (unused) array info, and the inline member datatype.
func encodeCompoundType(fields []Field, rowSize uint32) []byte {
	size := 8
	members := make([][]byte, len(fields))
	for i, f := range fields {
		members[i] = memberTypeFor(f)
		size += pad8(len(f.Name)+1) + 4 + 28 + len(members[i])
	}

	buf := make([]byte, size)
	le.PutUint32(buf[0:4], uint32(ClassCompound)|1<<4|uint32(len(fields))<<8)
	le.PutUint32(buf[4:8], rowSize)

	off := 8
	for i, f := range fields {
		copy(buf[off:], f.Name)
		off += pad8(len(f.Name) + 1)
		le.PutUint32(buf[off:off+4], f.Offset)
		off += 4
		off += 28 // array info, zeros for scalar members
		copy(buf[off:], members[i])
		off += len(members[i])
	}
	return buf
}

// encodeDataspace encodes a version 1 simple dataspace message without
// maximum dimensions.
func encodeDataspace(dims []uint64) []byte {
	buf := make([]byte, 8+8*len(dims))
	buf[0] = 1
	buf[1] = byte(len(dims))
	for i, d := range dims {
		le.PutUint64(buf[8+8*i:], d)
	}
	return buf
}

// encodeChunkedLayout encodes a version 3 chunked layout message. The
// dimensionality field and the chunk dimension list carry one extra entry
// holding the element size, per the format spec.
func encodeChunkedLayout(btreeAddr uint64, chunkDims []uint64, elemSize uint32) []byte {
	buf := make([]byte, 3+8+4*(len(chunkDims)+1))
	buf[0] = 3
	buf[1] = layoutChunked
	buf[2] = byte(len(chunkDims) + 1)
	le.PutUint64(buf[3:11], btreeAddr)
	off := 11
	for _, d := range chunkDims {
		le.PutUint32(buf[off:], uint32(d))
		off += 4
	}
	le.PutUint32(buf[off:], elemSize)
	return buf
}

// encodeDeflatePipeline encodes a version 1 filter pipeline message with a
// single deflate filter at the given level.
func encodeDeflatePipeline(level int) []byte {
	const name = "deflate"
	buf := make([]byte, 8+8+8+8)
	buf[0] = 1
	buf[1] = 1
	off := 8
	le.PutUint16(buf[off:], filterDeflate)
	le.PutUint16(buf[off+2:], uint16(len(name)+1))
	le.PutUint16(buf[off+4:], 0) // flags: mandatory
	le.PutUint16(buf[off+6:], 1) // one client data value
	off += 8
	copy(buf[off:], name)
	off += 8
	le.PutUint32(buf[off:], uint32(level))
	// Client data is padded to 8 bytes in version 1.
	return buf
}

// encodeSymbolTableMessage encodes a symbol table message (0x0011) linking
// a group's B-tree and local heap.
func encodeSymbolTableMessage(btreeAddr, heapAddr uint64) []byte {
	buf := make([]byte, 16)
	le.PutUint64(buf[0:8], btreeAddr)
	le.PutUint64(buf[8:16], heapAddr)
	return buf
}
