package repo

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/andreyvit/rscache"
	"github.com/vmihailenco/msgpack/v5"
)

func encodeRecord(buf *bytes.Buffer, item any) ([]byte, error) {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(item); err != nil {
		return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", item, err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, itemPtr any) error {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(&r)
	if err := dec.Decode(itemPtr); err != nil {
		return fmt.Errorf("failed to decode msgpack into %T: %w", itemPtr, err)
	}
	return nil
}

const keySize = 8

func encodeKey(id rscache.RepositoryID) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, keySize), uint64(id))
}

func decodeKey(key []byte) (rscache.RepositoryID, error) {
	if len(key) != keySize {
		return 0, fmt.Errorf("invalid record key %x", key)
	}
	return rscache.RepositoryID(binary.BigEndian.Uint64(key)), nil
}
