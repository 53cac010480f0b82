// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package tap reads and writes the TAP tape image format: a flat stream of
// length-prefixed chunks, each ending in an XOR checksum of its own bytes.
// It never touches a CPU or memory bank directly — formats/tap's parsers
// are a standalone, core-adjacent concern, callers feed the chunks this
// package yields into tape.InstantLoad or their own tape deck themselves.
package tap

import (
	"encoding/binary"
	"io"

	"github.com/zxula/spectrumcore/errors"
)

// Flag byte values a chunk's first data byte conventionally carries.
const (
	FlagHeader = 0x00
	FlagData   = 0xFF
)

// Chunk is one length-prefixed block of a TAP stream: Data holds every byte
// between the length prefix and end of chunk, flag and checksum included.
type Chunk struct {
	Data []byte
}

// Flag returns the chunk's leading flag byte, or 0 for an empty chunk.
func (c Chunk) Flag() uint8 {
	if len(c.Data) == 0 {
		return 0
	}
	return c.Data[0]
}

// Checksum returns the chunk's trailing checksum byte, or 0 for an empty
// chunk.
func (c Chunk) Checksum() uint8 {
	if len(c.Data) == 0 {
		return 0
	}
	return c.Data[len(c.Data)-1]
}

// Payload returns the chunk's data with the leading flag and trailing
// checksum stripped.
func (c Chunk) Payload() []byte {
	if len(c.Data) < 2 {
		return nil
	}
	return c.Data[1 : len(c.Data)-1]
}

// checksum XORs every byte in data together, the algorithm a chunk's final
// byte must equal for every byte preceding it.
func checksum(data []byte) uint8 {
	var c uint8
	for _, b := range data {
		c ^= b
	}
	return c
}

// Reader pulls successive Chunks from an underlying TAP byte stream.
type Reader struct {
	r      io.Reader
	offset int64
}

// NewReader wraps r as a TAP chunk reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the absolute byte offset within the stream the next call
// to Next will read from.
func (rd *Reader) Offset() int64 {
	return rd.offset
}

// Next reads and validates the next chunk. It returns io.EOF once the
// stream is exhausted with no partial chunk pending.
func (rd *Reader) Next() (Chunk, error) {
	var lenBuf [2]byte
	n, err := io.ReadFull(rd.r, lenBuf[:])
	if err == io.EOF && n == 0 {
		return Chunk{}, io.EOF
	}
	if err != nil {
		return Chunk{}, errors.Errorf(errors.HostIo, err)
	}
	rd.offset += 2

	length := binary.LittleEndian.Uint16(lenBuf[:])
	data := make([]byte, length)
	if _, err := io.ReadFull(rd.r, data); err != nil {
		return Chunk{}, errors.Errorf(errors.FormatMalformed, err)
	}
	rd.offset += int64(length)

	if length > 0 {
		want := checksum(data[:len(data)-1])
		got := data[len(data)-1]
		if want != got {
			return Chunk{}, errors.Errorf(errors.ChecksumMismatch, want, got)
		}
	}
	return Chunk{Data: data}, nil
}

// ReadAll reads every chunk in the stream.
func ReadAll(r io.Reader) ([]Chunk, error) {
	rd := NewReader(r)
	var chunks []Chunk
	for {
		c, err := rd.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, c)
	}
}

// Writer appends successive Chunks to an underlying TAP byte stream.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w as a TAP chunk writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBlock writes flag followed by payload and a trailing XOR checksum as
// a single length-prefixed chunk.
func (wr *Writer) WriteBlock(flag uint8, payload []byte) error {
	data := make([]byte, 0, len(payload)+2)
	data = append(data, flag)
	data = append(data, payload...)
	data = append(data, checksum(data))
	return wr.WriteChunk(data)
}

// WriteChunk writes data verbatim as one length-prefixed chunk. Callers
// using WriteBlock never need this directly; it exists for replaying
// chunks read back with Reader unmodified.
func (wr *Writer) WriteChunk(data []byte) error {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(data)))
	if _, err := wr.w.Write(lenBuf[:]); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	if _, err := wr.w.Write(data); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	return nil
}
