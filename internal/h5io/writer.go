package h5io

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"math"
	"os"
	"sort"
)

// FileWriter writes a new legacy-profile HDF5 file. Datasets and groups are
// written bottom-up: datasets first, then the group that links them, then
// Finish writes the root group and the superblock.
//
// All allocation is append-only; addresses are handed out in file order and
// the superblock's end-of-file address is fixed up last.
type FileWriter struct {
	f    *os.File
	next uint64
}

// Link names a child object inside a group.
type Link struct {
	Name string
	Addr uint64
}

// Attr is one group attribute. Value must be string, int32, int64 or
// float64.
type Attr struct {
	Name  string
	Value interface{}
}

// Create opens path for writing, truncating any existing file. The first
// 96 bytes are reserved for the version 0 superblock.
func Create(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{f: f, next: 96}, nil
}

// Close closes the underlying file without writing a superblock. Use Finish
// first for a valid file.
func (fw *FileWriter) Close() error {
	return fw.f.Close()
}

func (fw *FileWriter) allocate(n int) uint64 {
	addr := fw.next
	fw.next += uint64(pad8(n))
	return addr
}

func (fw *FileWriter) writeAt(data []byte, addr uint64) error {
	_, err := fw.f.WriteAt(data, int64(addr))
	return err
}

// WriteMatrix writes a rows x cols float64 dataset, stored as a single
// deflate-compressed chunk, and returns its object header address.
func (fw *FileWriter) WriteMatrix(values []float64, rows, cols, level int) (uint64, error) {
	if rows*cols != len(values) {
		return 0, fmt.Errorf("matrix shape %dx%d does not match %d values", rows, cols, len(values))
	}
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		le.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	return fw.writeChunkedDataset(encodeFloat64Type(), []uint64{uint64(rows), uint64(cols)}, 8, raw, level)
}

// WriteTable writes a 1-D compound dataset, stored as a single
// deflate-compressed chunk, and returns its object header address.
func (fw *FileWriter) WriteTable(t *Table, level int) (uint64, error) {
	if t.RowSize == 0 {
		return 0, fmt.Errorf("table has no fields")
	}
	dt := encodeCompoundType(t.Fields, uint32(t.RowSize))
	return fw.writeChunkedDataset(dt, []uint64{uint64(t.Rows())}, uint32(t.RowSize), t.Raw, level)
}

// writeChunkedDataset writes the chunk data, its index B-tree and the
// dataset object header, in that order.
func (fw *FileWriter) writeChunkedDataset(dtype []byte, dims []uint64, elemSize uint32, raw []byte, level int) (uint64, error) {
	compressed, err := deflate(raw, level)
	if err != nil {
		return 0, err
	}

	chunkAddr := fw.allocate(len(compressed))
	if err := fw.writeAt(compressed, chunkAddr); err != nil {
		return 0, err
	}

	btree := encodeChunkBTree(chunkAddr, uint32(len(compressed)), dims, elemSize)
	btreeAddr := fw.allocate(len(btree))
	if err := fw.writeAt(btree, btreeAddr); err != nil {
		return 0, err
	}

	header := encodeObjectHeader([]message{
		{msgDatatype, dtype},
		{msgDataspace, encodeDataspace(dims)},
		{msgLayout, encodeChunkedLayout(btreeAddr, dims, elemSize)},
		{msgFilterPipeline, encodeDeflatePipeline(level)},
	})
	addr := fw.allocate(len(header))
	return addr, fw.writeAt(header, addr)
}

// WriteGroup writes a symbol-table group holding the given links and
// attributes, and returns its object header address.
func (fw *FileWriter) WriteGroup(children []Link, attrs []Attr) (uint64, error) {
	btreeAddr, heapAddr, err := fw.writeGroupStructures(children)
	if err != nil {
		return 0, err
	}

	msgs := []message{{msgSymbolTable, encodeSymbolTableMessage(btreeAddr, heapAddr)}}
	for _, a := range attrs {
		m, err := encodeAttribute(a)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, message{msgAttribute, m})
	}

	header := encodeObjectHeader(msgs)
	addr := fw.allocate(len(header))
	return addr, fw.writeAt(header, addr)
}

// Finish writes the root group and the superblock, then truncates the file
// to the end of the allocated region.
func (fw *FileWriter) Finish(rootChildren []Link) error {
	btreeAddr, heapAddr, err := fw.writeGroupStructures(rootChildren)
	if err != nil {
		return err
	}

	header := encodeObjectHeader([]message{
		{msgSymbolTable, encodeSymbolTableMessage(btreeAddr, heapAddr)},
	})
	rootAddr := fw.allocate(len(header))
	if err := fw.writeAt(header, rootAddr); err != nil {
		return err
	}

	if err := fw.writeAt(encodeSuperblock(fw.next, rootAddr, btreeAddr, heapAddr), 0); err != nil {
		return err
	}
	return fw.f.Truncate(int64(fw.next))
}

// writeGroupStructures writes the local heap, symbol table node and group
// B-tree for one group. Entries are sorted by link name, as the B-tree
// requires.
func (fw *FileWriter) writeGroupStructures(children []Link) (btreeAddr, heapAddr uint64, err error) {
	if len(children) > snodCapacity {
		return 0, 0, fmt.Errorf("group has %d entries, max %d", len(children), snodCapacity)
	}
	sorted := make([]Link, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	// Local heap. Offset 0 holds the empty string so it can serve as the
	// B-tree's low key; names follow at 8-byte offsets.
	seg := make([]byte, 8)
	offsets := make([]uint64, len(sorted))
	for i, c := range sorted {
		offsets[i] = uint64(len(seg))
		name := append([]byte(c.Name), 0)
		seg = append(seg, name...)
		seg = append(seg, make([]byte, pad8(len(name))-len(name))...)
	}

	heap := make([]byte, 32+len(seg))
	copy(heap, "HEAP")
	le.PutUint64(heap[8:16], uint64(len(seg)))
	le.PutUint64(heap[16:24], 1) // no free list
	copy(heap[32:], seg)
	heapAddr = fw.allocate(len(heap))
	le.PutUint64(heap[24:32], heapAddr+32)
	if err := fw.writeAt(heap, heapAddr); err != nil {
		return 0, 0, err
	}

	// Symbol table node, fixed capacity, zero-padded.
	snod := make([]byte, 8+snodCapacity*40)
	copy(snod, "SNOD")
	snod[4] = 1
	le.PutUint16(snod[6:8], uint16(len(sorted)))
	for i, c := range sorted {
		e := snod[8+40*i:]
		le.PutUint64(e[0:8], offsets[i])
		le.PutUint64(e[8:16], c.Addr)
	}
	snodAddr := fw.allocate(len(snod))
	if err := fw.writeAt(snod, snodAddr); err != nil {
		return 0, 0, err
	}

	// Group B-tree: one leaf node with a single symbol table node child,
	// bracketed by the empty-string key and the greatest name's key.
	btree := make([]byte, 24+(2*groupBTreeK+1)*8+2*groupBTreeK*8)
	copy(btree, "TREE")
	btree[4] = 0 // group node
	btree[5] = 0 // leaf
	le.PutUint16(btree[6:8], 1)
	le.PutUint64(btree[8:16], undefAddr)
	le.PutUint64(btree[16:24], undefAddr)
	le.PutUint64(btree[24:32], 0) // key 0: empty string
	le.PutUint64(btree[32:40], snodAddr)
	if len(sorted) > 0 {
		le.PutUint64(btree[40:48], offsets[len(sorted)-1])
	}
	btreeAddr = fw.allocate(len(btree))
	if err := fw.writeAt(btree, btreeAddr); err != nil {
		return 0, 0, err
	}

	return btreeAddr, heapAddr, nil
}

type message struct {
	typ  uint16
	data []byte
}

// encodeObjectHeader encodes a version 1 object header. A trailing NIL
// message keeps the header-size bound conservative for readers that treat
// it as an absolute span.
func encodeObjectHeader(msgs []message) []byte {
	msgs = append(msgs, message{msgNIL, make([]byte, 8)})

	total := 0
	for _, m := range msgs {
		total += 8 + pad8(len(m.data))
	}

	buf := make([]byte, 16+total)
	buf[0] = 1
	le.PutUint16(buf[2:4], uint16(len(msgs)))
	le.PutUint32(buf[4:8], 1) // reference count
	le.PutUint32(buf[8:12], uint32(total))

	off := 16
	for _, m := range msgs {
		padded := pad8(len(m.data))
		le.PutUint16(buf[off:], m.typ)
		le.PutUint16(buf[off+2:], uint16(padded))
		off += 8
		copy(buf[off:], m.data)
		off += padded
	}
	return buf
}

// encodeChunkBTree encodes a single-node chunk index (B-tree v1, type 1)
// for a dataset stored as one chunk at logical offset zero. Keys carry
// rank+1 coordinates; the sentinel key holds the dataset extent.
func encodeChunkBTree(chunkAddr uint64, storedSize uint32, dims []uint64, elemSize uint32) []byte {
	rank1 := len(dims) + 1
	keySize := 8 + 8*rank1
	buf := make([]byte, 24+2*keySize+8)

	copy(buf, "TREE")
	buf[4] = 1 // raw data chunk node
	buf[5] = 0 // leaf
	le.PutUint16(buf[6:8], 1)
	le.PutUint64(buf[8:16], undefAddr)
	le.PutUint64(buf[16:24], undefAddr)

	off := 24
	// Key 0: stored chunk size, filter mask, zero offsets.
	le.PutUint32(buf[off:], storedSize)
	off += 8 + 8*rank1

	le.PutUint64(buf[off:], chunkAddr)
	off += 8

	// Sentinel key: dataset extent.
	off += 8
	for _, d := range dims {
		le.PutUint64(buf[off:], d)
		off += 8
	}
	le.PutUint64(buf[off:], uint64(elemSize))
	return buf
}

// encodeAttribute encodes a version 2 attribute message with a rank-1,
// single-element dataspace.
func encodeAttribute(a Attr) ([]byte, error) {
	var dtype, value []byte
	switch v := a.Value.(type) {
	case string:
		value = append([]byte(v), 0)
		dtype = encodeStringType(uint32(len(value)))
	case int32:
		value = make([]byte, 4)
		le.PutUint32(value, uint32(v))
		dtype = encodeFixedType(4)
	case int64:
		value = make([]byte, 8)
		le.PutUint64(value, uint64(v))
		dtype = encodeFixedType(8)
	case float64:
		value = make([]byte, 8)
		le.PutUint64(value, math.Float64bits(v))
		dtype = encodeFloat64Type()
	default:
		return nil, fmt.Errorf("attribute %q: unsupported value type %T", a.Name, a.Value)
	}

	dspace := encodeDataspace([]uint64{1})
	name := append([]byte(a.Name), 0)

	buf := make([]byte, 0, 8+len(name)+len(dtype)+len(dspace)+len(value))
	buf = append(buf, 2, 0)
	buf = le.AppendUint16(buf, uint16(len(name)))
	buf = le.AppendUint16(buf, uint16(len(dtype)))
	buf = le.AppendUint16(buf, uint16(len(dspace)))
	buf = append(buf, name...)
	buf = append(buf, dtype...)
	buf = append(buf, dspace...)
	buf = append(buf, value...)
	return buf, nil
}

// encodeSuperblock encodes the 96-byte version 0 superblock, including the
// root group symbol table entry with its cached B-tree and heap addresses.
func encodeSuperblock(eof, rootAddr, btreeAddr, heapAddr uint64) []byte {
	buf := make([]byte, 96)
	copy(buf, signature)
	buf[13] = 8 // size of offsets
	buf[14] = 8 // size of lengths
	le.PutUint16(buf[16:18], 4)          // group leaf node K
	le.PutUint16(buf[18:20], groupBTreeK) // group internal node K
	le.PutUint64(buf[24:32], 0)           // base address
	le.PutUint64(buf[32:40], undefAddr)   // free space address
	le.PutUint64(buf[40:48], eof)
	le.PutUint64(buf[48:56], undefAddr) // driver info address
	// Root group symbol table entry.
	le.PutUint64(buf[56:64], 0) // link name offset
	le.PutUint64(buf[64:72], rootAddr)
	le.PutUint32(buf[72:76], 1) // cached symbol table
	le.PutUint64(buf[80:88], btreeAddr)
	le.PutUint64(buf[88:96], heapAddr)
	return buf
}

// deflate compresses data as a raw zlib stream, which is what the HDF5
// deflate filter stores.
func deflate(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
