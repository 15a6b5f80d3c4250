package h5io

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// objectInfo is the parsed subset of a dataset object header that table and
// dimension reads need.
type objectInfo struct {
	fields   []Field
	rowSize  int
	dims     []uint64
	layout   []byte
	deflated bool
}

// ReadTable reads a 1-D compound dataset rooted at the given object header
// address. It exists because the hdf5 dependency advances through version 1
// compound members by re-deriving property sizes from the raw buffer, which
// goes wrong when a string member is followed by further members; rig
// descriptor tables store Name before Unit and hit exactly that case.
func ReadTable(r io.ReaderAt, addr uint64) (*Table, error) {
	info, err := readObjectInfo(r, addr)
	if err != nil {
		return nil, err
	}
	if info.fields == nil {
		return nil, fmt.Errorf("object at %d is not a compound dataset", addr)
	}
	if len(info.dims) != 1 {
		return nil, fmt.Errorf("compound dataset at %d has rank %d, want 1", addr, len(info.dims))
	}

	raw, err := readData(r, info, info.rowSize)
	if err != nil {
		return nil, err
	}
	want := int(info.dims[0]) * info.rowSize
	if len(raw) < want {
		return nil, fmt.Errorf("dataset at %d: have %d bytes, need %d", addr, len(raw), want)
	}
	return &Table{Fields: info.fields, RowSize: info.rowSize, Raw: raw[:want]}, nil
}

// ReadDims returns the dataspace dimensions of the dataset at the given
// object header address.
func ReadDims(r io.ReaderAt, addr uint64) ([]uint64, error) {
	info, err := readObjectInfo(r, addr)
	if err != nil {
		return nil, err
	}
	if info.dims == nil {
		return nil, fmt.Errorf("object at %d has no dataspace", addr)
	}
	return info.dims, nil
}

func readObjectInfo(r io.ReaderAt, addr uint64) (*objectInfo, error) {
	prefix := make([]byte, 16)
	if _, err := r.ReadAt(prefix, int64(addr)); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	if prefix[0] != 1 {
		return nil, fmt.Errorf("object header at %d: unsupported version %d", addr, prefix[0])
	}
	nmsgs := int(le.Uint16(prefix[2:4]))
	headerSize := int(le.Uint32(prefix[8:12]))

	block := make([]byte, headerSize)
	if _, err := r.ReadAt(block, int64(addr)+16); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}

	info := &objectInfo{rowSize: -1}
	off := 0
	for i := 0; i < nmsgs && off+8 <= len(block); i++ {
		typ := le.Uint16(block[off:])
		size := int(le.Uint16(block[off+2:]))
		off += 8
		if off+size > len(block) {
			break
		}
		data := block[off : off+size]
		off += size

		switch typ {
		case msgDataspace:
			dims, err := parseDataspace(data)
			if err != nil {
				return nil, fmt.Errorf("object at %d: %w", addr, err)
			}
			info.dims = dims
		case msgDatatype:
			fields, rowSize, err := parseDatatype(data)
			if err != nil {
				return nil, fmt.Errorf("object at %d: %w", addr, err)
			}
			info.fields = fields
			info.rowSize = rowSize
		case msgLayout:
			info.layout = append([]byte(nil), data...)
		case msgFilterPipeline:
			info.deflated = pipelineHasDeflate(data)
		}
	}
	return info, nil
}

func parseDataspace(data []byte) ([]uint64, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("dataspace message too short")
	}
	var rank int
	var off int
	switch data[0] {
	case 1:
		rank = int(data[1])
		off = 8
	case 2:
		rank = int(data[1])
		off = 4
	default:
		return nil, fmt.Errorf("dataspace version %d unsupported", data[0])
	}
	if len(data) < off+8*rank {
		return nil, fmt.Errorf("dataspace message truncated")
	}
	dims := make([]uint64, rank)
	for i := range dims {
		dims[i] = le.Uint64(data[off+8*i:])
	}
	return dims, nil
}

// parseDatatype decodes a version 1 compound datatype into field
// descriptors. Non-compound types return nil fields with the element size.
func parseDatatype(data []byte) ([]Field, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("datatype message too short")
	}
	word0 := le.Uint32(data[0:4])
	class := uint8(word0 & 0x0F)
	size := int(le.Uint32(data[4:8]))
	if class != ClassCompound {
		return nil, size, nil
	}
	if (word0>>4)&0x0F != 1 {
		return nil, 0, fmt.Errorf("compound datatype version %d unsupported", (word0>>4)&0x0F)
	}

	nmembers := int(word0 >> 8 & 0xFFFF)
	fields := make([]Field, 0, nmembers)
	off := 8
	for m := 0; m < nmembers; m++ {
		end := bytes.IndexByte(data[off:], 0)
		if end < 0 {
			return nil, 0, fmt.Errorf("compound member %d: unterminated name", m)
		}
		name := string(data[off : off+end])
		off += pad8(end + 1)

		if len(data) < off+32+8 {
			return nil, 0, fmt.Errorf("compound member %q: message truncated", name)
		}
		memberOff := le.Uint32(data[off:])
		off += 4 + 28 // offset plus version 1 array info

		mword := le.Uint32(data[off:])
		mclass := uint8(mword & 0x0F)
		msize := le.Uint32(data[off+4:])
		off += 8

		// Property block sizes for the member classes the rig files use.
		switch mclass {
		case ClassFixed:
			off += 4
		case ClassFloat:
			off += 12
		case ClassString:
		default:
			return nil, 0, fmt.Errorf("compound member %q: class %d unsupported", name, mclass)
		}

		fields = append(fields, Field{Name: name, Class: mclass, Size: msize, Offset: memberOff})
	}
	return fields, size, nil
}

func pipelineHasDeflate(data []byte) bool {
	if len(data) < 8 || data[0] != 1 {
		return false
	}
	nfilters := int(data[1])
	off := 8
	for i := 0; i < nfilters && off+8 <= len(data); i++ {
		id := le.Uint16(data[off:])
		if id == filterDeflate {
			return true
		}
		nameLen := int(le.Uint16(data[off+2:]))
		ncd := int(le.Uint16(data[off+6:]))
		off += 8 + pad8(nameLen) + pad8(4*ncd)
	}
	return false
}

// readData reads the dataset's raw bytes according to its layout message.
func readData(r io.ReaderAt, info *objectInfo, rowSize int) ([]byte, error) {
	data := info.layout
	if len(data) < 2 || data[0] != 3 {
		return nil, fmt.Errorf("layout message version unsupported")
	}
	switch data[1] {
	case layoutContiguous:
		if len(data) < 18 {
			return nil, fmt.Errorf("contiguous layout message truncated")
		}
		addr := le.Uint64(data[2:10])
		size := le.Uint64(data[10:18])
		buf := make([]byte, size)
		if _, err := r.ReadAt(buf, int64(addr)); err != nil {
			return nil, err
		}
		return buf, nil
	case layoutChunked:
		return readChunked(r, info, data, rowSize)
	default:
		return nil, fmt.Errorf("layout class %d unsupported", data[1])
	}
}

func readChunked(r io.ReaderAt, info *objectInfo, layout []byte, rowSize int) ([]byte, error) {
	ndims := int(layout[2])
	if len(layout) < 11+4*ndims {
		return nil, fmt.Errorf("chunked layout message truncated")
	}
	btreeAddr := le.Uint64(layout[3:11])
	chunkDims := make([]uint64, ndims)
	for i := range chunkDims {
		chunkDims[i] = uint64(le.Uint32(layout[11+4*i:]))
	}

	total := uint64(rowSize)
	for _, d := range info.dims {
		total *= d
	}
	out := make([]byte, total)

	// Bytes in one dataset row, for placing chunk data by its first key
	// coordinate. Chunks must span full rows in the files this package
	// handles.
	datasetRowBytes := uint64(rowSize)
	for i := 1; i < len(info.dims); i++ {
		if chunkDims[i] < info.dims[i] {
			return nil, fmt.Errorf("chunk dimension %d narrower than dataset", i)
		}
		datasetRowBytes *= info.dims[i]
	}

	err := walkChunkBTree(r, btreeAddr, ndims, func(coords []uint64, addr uint64, stored uint32) error {
		buf := make([]byte, stored)
		if _, err := r.ReadAt(buf, int64(addr)); err != nil {
			return err
		}
		if info.deflated {
			zr, err := zlib.NewReader(bytes.NewReader(buf))
			if err != nil {
				return err
			}
			defer zr.Close()
			inflated, err := io.ReadAll(zr)
			if err != nil {
				return err
			}
			buf = inflated
		}
		start := coords[0] * datasetRowBytes
		if start > uint64(len(out)) {
			return fmt.Errorf("chunk at row %d outside dataset extent", coords[0])
		}
		copy(out[start:], buf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// walkChunkBTree visits every chunk recorded in a version 1 type 1 B-tree,
// recursing through internal nodes.
func walkChunkBTree(r io.ReaderAt, addr uint64, ndims int, visit func(coords []uint64, addr uint64, stored uint32) error) error {
	header := make([]byte, 24)
	if _, err := r.ReadAt(header, int64(addr)); err != nil {
		return err
	}
	if string(header[0:4]) != "TREE" || header[4] != 1 {
		return fmt.Errorf("chunk B-tree node at %d: bad signature", addr)
	}
	level := header[5]
	entries := int(le.Uint16(header[6:8]))

	keySize := 8 + 8*ndims
	body := make([]byte, entries*(keySize+8)+keySize)
	if _, err := r.ReadAt(body, int64(addr)+24); err != nil {
		return err
	}

	off := 0
	for i := 0; i < entries; i++ {
		stored := le.Uint32(body[off:])
		coords := make([]uint64, ndims)
		for d := range coords {
			coords[d] = le.Uint64(body[off+8+8*d:])
		}
		off += keySize
		child := le.Uint64(body[off:])
		off += 8

		if level > 0 {
			if err := walkChunkBTree(r, child, ndims, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(coords, child, stored); err != nil {
			return err
		}
	}
	return nil
}
