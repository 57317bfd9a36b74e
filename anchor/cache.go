package anchor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/malabz/rama/gsa"
	"github.com/malabz/rama/rmq"
	"github.com/malabz/rama/utils"
)

const cacheMagic = "RAMA"

const cacheVersion uint32 = 1

// SaveCache writes the concatenated text and every index structure into a
// single zstd-compressed file. The header carries a checksum of the
// uncompressed payload so a truncated or stale file is rejected on load.
func (f *AnchorFinder) SaveCache(fn string) error {
	var payload bytes.Buffer
	if err := utils.SaveNumber(&payload, uint64(len(f.concatData))); err != nil {
		return err
	}
	if err := utils.SaveNumber(&payload, uint64(f.firstSeqLen)); err != nil {
		return err
	}
	if err := utils.SaveNumber(&payload, uint64(f.secondSeqLen)); err != nil {
		return err
	}
	if err := utils.SaveByteSlice(&payload, f.concatData); err != nil {
		return err
	}
	if err := f.gsa.Serialize(&payload); err != nil {
		return err
	}
	if err := f.rmq.Serialize(&payload); err != nil {
		return err
	}

	fp, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "create cache file %s", fn)
	}
	defer fp.Close()
	bw := bufio.NewWriter(fp)
	if _, err = bw.WriteString(cacheMagic); err != nil {
		return err
	}
	if err = binary.Write(bw, binary.LittleEndian, cacheVersion); err != nil {
		return err
	}
	if err = binary.Write(bw, binary.LittleEndian, xxhash.Sum64(payload.Bytes())); err != nil {
		return err
	}
	zw, err := zstd.NewWriter(bw, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(1))
	if err != nil {
		return err
	}
	if _, err = zw.Write(payload.Bytes()); err != nil {
		zw.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

func (f *AnchorFinder) loadCache(fn string) error {
	fp, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer fp.Close()
	br := bufio.NewReader(fp)

	magic := make([]byte, len(cacheMagic))
	if _, err = io.ReadFull(br, magic); err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: read magic: %v", fn, err)
	}
	if string(magic) != cacheMagic {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: bad magic %q", fn, magic)
	}
	var version uint32
	if err = binary.Read(br, binary.LittleEndian, &version); err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: read version: %v", fn, err)
	}
	if version != cacheVersion {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: version %d, want %d", fn, version, cacheVersion)
	}
	var sum uint64
	if err = binary.Read(br, binary.LittleEndian, &sum); err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: read checksum: %v", fn, err)
	}

	zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return err
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: decompress: %v", fn, err)
	}
	if xxhash.Sum64(payload) != sum {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: checksum mismatch", fn)
	}

	r := bytes.NewReader(payload)
	concatDataLength, err := utils.LoadNumber(r)
	if err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: %v", fn, err)
	}
	firstSeqLen, err := utils.LoadNumber(r)
	if err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: %v", fn, err)
	}
	secondSeqLen, err := utils.LoadNumber(r)
	if err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: %v", fn, err)
	}
	concatData, err := utils.LoadByteSlice(r)
	if err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: %v", fn, err)
	}
	if uint64(len(concatData)) != concatDataLength {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: concat length %d, header says %d", fn, len(concatData), concatDataLength)
	}

	var g gsa.GSA
	if err = g.Deserialize(r); err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: %v", fn, err)
	}
	var table rmq.LinearSparseTable
	if err = table.Deserialize(r); err != nil {
		return errors.Wrapf(utils.ErrCorruptCache, "cache %s: %v", fn, err)
	}
	table.SetLCP(g.LCP)

	f.concatData = concatData
	f.firstSeqLen = int(firstSeqLen)
	f.secondSeqLen = int(secondSeqLen)
	f.gsa = &g
	f.rmq = &table
	return nil
}
