// Package filewriter reads and writes the binary fixture files that carry
// the core's flat arrays between tools: signal blocks, velocity models,
// station coordinates, search origins, and delay/residual results. Every
// file shares one framing: a 5-byte magic, a format version, then a
// typed payload — the same shape as the reference collector's capture
// file format, adapted from complex IQ samples to the locator's typed
// float32/int32 arrays.
package filewriter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Magic identifies a seismo-locator fixture file.
const Magic = "SEISM"

// smallFileThreshold is the payload size below which a fixture is read
// in one shot; at or above it, ReadFloat32Matrix/ReadInt32Matrix switch
// to chunked reads with progress reporting, mirroring the reference
// collector's readFileWithProgress threshold.
const smallFileThreshold = 10 * 1024 * 1024

// progressChunkElements caps each chunked read at roughly 1MB of
// payload, the reference collector's chunk size.
const progressChunkElements = 1024 * 1024 / 4

// Kind identifies which array a fixture file carries.
type Kind uint8

const (
	KindSignals Kind = iota + 1
	KindVelocityModel
	KindStationCoords
	KindSearchOrigins
	KindRealDelays
	KindDiffCube
)

// Header is the common framing written ahead of every payload.
type Header struct {
	FormatVersion uint16
	Kind          Kind
	Rows          uint32
	Cols          uint32
}

func writeHeader(w io.Writer, h Header) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	for _, v := range []interface{}{h.FormatVersion, h.Kind, h.Rows, h.Cols} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (Header, error) {
	var h Header
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return h, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic) != Magic {
		return h, fmt.Errorf("invalid fixture file format")
	}
	for _, v := range []interface{}{&h.FormatVersion, &h.Kind, &h.Rows, &h.Cols} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return h, err
		}
	}
	return h, nil
}

// WriteFloat32Matrix writes a flat row-major (rows, cols) real32 array as
// a fixture file of the given kind.
func WriteFloat32Matrix(filename string, kind Kind, rows, cols int, data []float32) error {
	if len(data) != rows*cols {
		return fmt.Errorf("data length %d does not match rows*cols=%d", len(data), rows*cols)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create fixture file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := writeHeader(w, Header{FormatVersion: 1, Kind: kind, Rows: uint32(rows), Cols: uint32(cols)}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return w.Flush()
}

// ReadFloat32Matrix reads a fixture file written by WriteFloat32Matrix.
// Payloads at or above smallFileThreshold are read in chunks with
// progress reporting.
func ReadFloat32Matrix(filename string) (Header, []float32, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	h, err := readHeader(r)
	if err != nil {
		return h, nil, err
	}

	elements := int(h.Rows) * int(h.Cols)
	data := make([]float32, elements)

	if elements*4 < smallFileThreshold {
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return h, nil, fmt.Errorf("failed to read payload: %w", err)
		}
		return h, data, nil
	}

	fmt.Printf("      📊 Reading %d elements...\n", elements)
	lastProgress := -1
	read := 0
	for read < elements {
		n := progressChunkElements
		if read+n > elements {
			n = elements - read
		}
		if err := binary.Read(r, binary.LittleEndian, data[read:read+n]); err != nil {
			return h, nil, fmt.Errorf("failed to read payload: %w", err)
		}
		read += n

		progress := int((float64(read) / float64(elements)) * 100)
		if progress != lastProgress && progress%10 == 0 {
			fmt.Printf("         Progress: %d%%\n", progress)
			lastProgress = progress
		}
	}
	return h, data, nil
}

// WriteInt32Matrix writes a flat row-major (rows, cols) int32 array as a
// fixture file of the given kind.
func WriteInt32Matrix(filename string, kind Kind, rows, cols int, data []int32) error {
	if len(data) != rows*cols {
		return fmt.Errorf("data length %d does not match rows*cols=%d", len(data), rows*cols)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create fixture file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := writeHeader(w, Header{FormatVersion: 1, Kind: kind, Rows: uint32(rows), Cols: uint32(cols)}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return w.Flush()
}

// ReadInt32Matrix reads a fixture file written by WriteInt32Matrix.
// Payloads at or above smallFileThreshold are read in chunks with
// progress reporting.
func ReadInt32Matrix(filename string) (Header, []int32, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	h, err := readHeader(r)
	if err != nil {
		return h, nil, err
	}

	elements := int(h.Rows) * int(h.Cols)
	data := make([]int32, elements)

	if elements*4 < smallFileThreshold {
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return h, nil, fmt.Errorf("failed to read payload: %w", err)
		}
		return h, data, nil
	}

	fmt.Printf("      📊 Reading %d elements...\n", elements)
	lastProgress := -1
	read := 0
	for read < elements {
		n := progressChunkElements
		if read+n > elements {
			n = elements - read
		}
		if err := binary.Read(r, binary.LittleEndian, data[read:read+n]); err != nil {
			return h, nil, fmt.Errorf("failed to read payload: %w", err)
		}
		read += n

		progress := int((float64(read) / float64(elements)) * 100)
		if progress != lastProgress && progress%10 == 0 {
			fmt.Printf("         Progress: %d%%\n", progress)
			lastProgress = progress
		}
	}
	return h, data, nil
}

// PeekHeader reads only a fixture file's header, without loading its
// payload — used by the inspect tool to summarize large files cheaply.
func PeekHeader(filename string) (Header, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer file.Close()

	return readHeader(bufio.NewReader(file))
}

// KindString returns a human-readable name for a fixture kind.
func KindString(k Kind) string {
	switch k {
	case KindSignals:
		return "signals"
	case KindVelocityModel:
		return "velocity-model"
	case KindStationCoords:
		return "station-coords"
	case KindSearchOrigins:
		return "search-origins"
	case KindRealDelays:
		return "real-delays"
	case KindDiffCube:
		return "diff-cube"
	default:
		return "unknown"
	}
}
