// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/chaincfg"
)

const (
	// MaxVarIntPayload is the maximum payload size for a variable length
	// integer.
	MaxVarIntPayload = 9
)

var (
	// littleEndian is a convenience variable since binary.LittleEndian is
	// quite long.
	littleEndian = binary.LittleEndian

	// bigEndian is a convenience variable since binary.BigEndian is quite
	// long.
	bigEndian = binary.BigEndian
)

// nonCanonicalVarIntFormat is the common format string used for
// non-canonically encoded variable length integer errors.
var nonCanonicalVarIntFormat = "non-canonical varint %x - discriminant " +
	"%x must encode a value greater than %x"

// int64Time represents a unix timestamp encoded with an int64.  It is used as
// a way to signal the readElement function how to decode a timestamp into a
// Go time.Time since it is otherwise ambiguous.
type int64Time time.Time

// uint32Time represents a unix timestamp encoded with a uint32.  It is used
// the same way as int64Time.
type uint32Time time.Time

// readFull reads size bytes into a stack buffer and hands it to the callback.
// It normalizes a zero-byte read to io.EOF and a partial read to
// io.ErrUnexpectedEOF so callers see consistent truncation errors.
func readFull(r io.Reader, size int, cb func(p [8]byte)) error {
	var data [8]byte
	n, err := io.ReadFull(r, data[:size])
	if err != nil {
		if n == 0 && err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return err
	}
	cb(data)
	return nil
}

// readUint8 reads a byte and stores it to *value.
func readUint8(r io.Reader, value *uint8) error {
	return readFull(r, 1, func(p [8]byte) {
		*value = p[0]
	})
}

// readUint16LE reads the little endian encoding of a uint16 and stores it to
// *value.
func readUint16LE(r io.Reader, value *uint16) error {
	return readFull(r, 2, func(p [8]byte) {
		*value = littleEndian.Uint16(p[:])
	})
}

// readUint16BE reads the big endian encoding of a uint16 and stores it to
// *value.
func readUint16BE(r io.Reader, value *uint16) error {
	return readFull(r, 2, func(p [8]byte) {
		*value = bigEndian.Uint16(p[:])
	})
}

// readUint32LE reads the little endian encoding of a uint32 and stores it to
// *value.
func readUint32LE(r io.Reader, value *uint32) error {
	return readFull(r, 4, func(p [8]byte) {
		*value = littleEndian.Uint32(p[:])
	})
}

// readUint64LE reads the little endian encoding of a uint64 and stores it to
// *value.
func readUint64LE(r io.Reader, value *uint64) error {
	return readFull(r, 8, func(p [8]byte) {
		*value = littleEndian.Uint64(p[:])
	})
}

// writeUint8 writes the byte value to the writer.
func writeUint8(w io.Writer, value uint8) error {
	buf := [1]byte{value}
	_, err := w.Write(buf[:])
	return err
}

// writeUint16LE writes the little endian encoding of value to the writer.
func writeUint16LE(w io.Writer, value uint16) error {
	var buf [2]byte
	littleEndian.PutUint16(buf[:], value)
	_, err := w.Write(buf[:])
	return err
}

// writeUint16BE writes the big endian encoding of value to the writer.
func writeUint16BE(w io.Writer, value uint16) error {
	var buf [2]byte
	bigEndian.PutUint16(buf[:], value)
	_, err := w.Write(buf[:])
	return err
}

// writeUint32LE writes the little endian encoding of value to the writer.
func writeUint32LE(w io.Writer, value uint32) error {
	var buf [4]byte
	littleEndian.PutUint32(buf[:], value)
	_, err := w.Write(buf[:])
	return err
}

// writeUint64LE writes the little endian encoding of value to the writer.
func writeUint64LE(w io.Writer, value uint64) error {
	var buf [8]byte
	littleEndian.PutUint64(buf[:], value)
	_, err := w.Write(buf[:])
	return err
}

// readElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func readElement(r io.Reader, element interface{}) error {
	// Attempt to read the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case *uint8:
		return readUint8(r, e)

	case *uint16:
		return readUint16LE(r, e)

	case *int32:
		var value uint32
		err := readUint32LE(r, &value)
		if err != nil {
			return err
		}
		*e = int32(value)
		return nil

	case *uint32:
		return readUint32LE(r, e)

	case *int64:
		var value uint64
		err := readUint64LE(r, &value)
		if err != nil {
			return err
		}
		*e = int64(value)
		return nil

	case *uint64:
		return readUint64LE(r, e)

	case *bool:
		var value uint8
		err := readUint8(r, &value)
		if err != nil {
			return err
		}
		*e = value != 0x00
		return nil

	// Unix timestamp encoded as an int64.
	case *int64Time:
		var value uint64
		err := readUint64LE(r, &value)
		if err != nil {
			return err
		}
		*e = int64Time(time.Unix(int64(value), 0))
		return nil

	// Unix timestamp encoded as a uint32.
	case *uint32Time:
		var value uint32
		err := readUint32LE(r, &value)
		if err != nil {
			return err
		}
		*e = uint32Time(time.Unix(int64(value), 0))
		return nil

	// Message header checksum.
	case *[4]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	// IP address.
	case *[16]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	// BLS voting key id.
	case *[20]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	// Hashes.
	case *[32]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	case *chainhash.Hash:
		_, err := io.ReadFull(r, e[:])
		return err

	// BLS public key.
	case *[BLSPubKeySize]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	// BLS signature.
	case *[BLSSignatureSize]byte:
		_, err := io.ReadFull(r, e[:])
		return err

	case *ServiceFlag:
		return readUint64LE(r, (*uint64)(e))

	case *InvType:
		return readUint32LE(r, (*uint32)(e))

	case *chaincfg.AxeNet:
		return readUint32LE(r, (*uint32)(e))

	case *chaincfg.LLMQType:
		return readUint8(r, (*uint8)(e))
	}

	// Fall back to the slower binary.Read if a fast path was not available
	// above.
	return binary.Read(r, littleEndian, element)
}

// readElements reads multiple items from r.  It is equivalent to multiple
// calls to readElement.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := readElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeElement writes the little endian representation of element to w.
func writeElement(w io.Writer, element interface{}) error {
	// Attempt to write the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case *uint8:
		return writeUint8(w, *e)

	case *uint16:
		return writeUint16LE(w, *e)

	case *int32:
		return writeUint32LE(w, uint32(*e))

	case *uint32:
		return writeUint32LE(w, *e)

	case *int64:
		return writeUint64LE(w, uint64(*e))

	case *uint64:
		return writeUint64LE(w, *e)

	case *bool:
		if *e {
			return writeUint8(w, 0x01)
		}
		return writeUint8(w, 0x00)

	case *int64Time:
		return writeUint64LE(w, uint64(time.Time(*e).Unix()))

	case *uint32Time:
		return writeUint32LE(w, uint32(time.Time(*e).Unix()))

	// Message header checksum.
	case *[4]byte:
		_, err := w.Write(e[:])
		return err

	// IP address.
	case *[16]byte:
		_, err := w.Write(e[:])
		return err

	// BLS voting key id.
	case *[20]byte:
		_, err := w.Write(e[:])
		return err

	// Hashes.
	case *[32]byte:
		_, err := w.Write(e[:])
		return err

	case *chainhash.Hash:
		_, err := w.Write(e[:])
		return err

	// BLS public key.
	case *[BLSPubKeySize]byte:
		_, err := w.Write(e[:])
		return err

	// BLS signature.
	case *[BLSSignatureSize]byte:
		_, err := w.Write(e[:])
		return err

	case *ServiceFlag:
		return writeUint64LE(w, uint64(*e))

	case *InvType:
		return writeUint32LE(w, uint32(*e))

	case *chaincfg.AxeNet:
		return writeUint32LE(w, uint32(*e))

	case *chaincfg.LLMQType:
		return writeUint8(w, uint8(*e))
	}

	// Fall back to the slower binary.Write if a fast path was not available
	// above.
	return binary.Write(w, littleEndian, element)
}

// writeElements writes multiple items to w.  It is equivalent to multiple
// calls to writeElement.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := writeElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64.
func ReadVarInt(r io.Reader, pver uint32) (uint64, error) {
	const op = "ReadVarInt"
	var discriminant uint8
	err := readUint8(r, &discriminant)
	if err != nil {
		return 0, err
	}

	var rv uint64
	switch discriminant {
	case 0xff:
		var sv uint64
		err := readUint64LE(r, &sv)
		if err != nil {
			return 0, err
		}
		rv = sv

		// The encoding is not canonical if the value could have been
		// encoded using fewer bytes.
		min := uint64(0x100000000)
		if rv < min {
			msg := fmt.Sprintf(nonCanonicalVarIntFormat, rv, discriminant, min)
			return 0, messageError(op, ErrNonCanonicalVarInt, msg)
		}

	case 0xfe:
		var sv uint32
		err := readUint32LE(r, &sv)
		if err != nil {
			return 0, err
		}
		rv = uint64(sv)

		// The encoding is not canonical if the value could have been
		// encoded using fewer bytes.
		min := uint64(0x10000)
		if rv < min {
			msg := fmt.Sprintf(nonCanonicalVarIntFormat, rv, discriminant, min)
			return 0, messageError(op, ErrNonCanonicalVarInt, msg)
		}

	case 0xfd:
		var sv uint16
		err := readUint16LE(r, &sv)
		if err != nil {
			return 0, err
		}
		rv = uint64(sv)

		// The encoding is not canonical if the value could have been
		// encoded using fewer bytes.
		min := uint64(0xfd)
		if rv < min {
			msg := fmt.Sprintf(nonCanonicalVarIntFormat, rv, discriminant, min)
			return 0, messageError(op, ErrNonCanonicalVarInt, msg)
		}

	default:
		rv = uint64(discriminant)
	}

	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, pver uint32, val uint64) error {
	if val < 0xfd {
		return writeUint8(w, uint8(val))
	}

	if val <= math.MaxUint16 {
		var buf [3]byte
		buf[0] = 0xfd
		littleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf[:])
		return err
	}

	if val <= math.MaxUint32 {
		var buf [5]byte
		buf[0] = 0xfe
		littleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf[:])
		return err
	}

	var buf [9]byte
	buf[0] = 0xff
	littleEndian.PutUint64(buf[1:], val)
	_, err := w.Write(buf[:])
	return err
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < 0xfd {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= math.MaxUint16 {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= math.MaxUint32 {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// ReadVarString reads a variable length string from r and returns it as a Go
// string.  A variable length string is encoded as a variable length integer
// containing the length of the string followed by the bytes that represent
// the string itself.  An error is returned if the length is greater than the
// maximum message payload size since it helps protect against memory
// exhaustion attacks and forced panics through malformed messages.
func ReadVarString(r io.Reader, pver uint32) (string, error) {
	const op = "ReadVarString"
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return "", err
	}

	// Prevent variable length strings that are larger than the maximum
	// message size.  It would be possible to cause memory exhaustion and
	// panics without a sane upper bound on this count.
	if count > MaxMessagePayload {
		msg := fmt.Sprintf("variable length string is too long "+
			"[count %d, max %d]", count, MaxMessagePayload)
		return "", messageError(op, ErrVarStringTooLong, msg)
	}

	buf := make([]byte, count)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteVarString serializes str to w as a variable length integer containing
// the length of the string followed by the bytes that represent the string
// itself.
func WriteVarString(w io.Writer, pver uint32, str string) error {
	err := WriteVarInt(w, pver, uint64(len(str)))
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(str))
	return err
}

// ReadVarBytes reads a variable length byte array.  A byte array is encoded
// as a varInt containing the length of the array followed by the bytes
// themselves.  An error is returned if the length is greater than the passed
// maxAllowed parameter which helps protect against memory exhaustion attacks
// and forced panics through malformed messages.  The fieldName parameter is
// only used for the error message so it provides more context in the error.
func ReadVarBytes(r io.Reader, pver uint32, maxAllowed uint32,
	fieldName string) ([]byte, error) {

	const op = "ReadVarBytes"
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}

	// Prevent byte array larger than the max message size.  It would
	// be possible to cause memory exhaustion and panics without a sane
	// upper bound on this count.
	if count > uint64(maxAllowed) {
		msg := fmt.Sprintf("%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
		return nil, messageError(op, ErrVarBytesTooLong, msg)
	}

	b := make([]byte, count)
	_, err = io.ReadFull(r, b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varInt
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, pver uint32, bytes []byte) error {
	slen := uint64(len(bytes))
	err := WriteVarInt(w, pver, slen)
	if err != nil {
		return err
	}

	_, err = w.Write(bytes)
	return err
}

// randomUint64 returns a cryptographically random uint64 value.  This
// unexported version takes a reader primarily to ensure the error paths can
// be properly tested by passing a fake reader in the tests.
func randomUint64(r io.Reader) (uint64, error) {
	var rv uint64
	err := readUint64LE(r, &rv)
	if err != nil {
		return 0, err
	}
	return rv, nil
}

// RandomUint64 returns a cryptographically random uint64 value.
func RandomUint64() (uint64, error) {
	return randomUint64(rand.Reader)
}
