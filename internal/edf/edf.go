package edf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// FixedHeaderSize is the size of the leading fixed-offset ASCII block
	FixedHeaderSize = 256
	// SignalHeaderSize is the per-signal header size (sum of all fixed-width fields)
	SignalHeaderSize = 256

	labelWidth      = 16
	transducerWidth = 80
	numWidth        = 8
	prefilterWidth  = 80
	reservedWidth   = 32

	bytesPerSample = 2
)

var (
	// ErrTruncatedHeader is returned when a file is shorter than its declared header
	ErrTruncatedHeader = errors.New("truncated EDF header")
	// ErrBadSignalCount is returned when the signal count field is not a positive integer
	ErrBadSignalCount = errors.New("invalid EDF signal count")
)

// Signal holds the per-signal header fields. Text fields are stored trimmed;
// Marshal re-pads them to their fixed widths.
type Signal struct {
	Label            string
	Transducer       string
	PhysicalDim      string
	PhysicalMin      string
	PhysicalMax      string
	DigitalMin       string
	DigitalMax       string
	Prefilter        string
	SamplesPerRecord int
	Reserved         string
}

// Header holds the fixed 256-byte EDF header plus the per-signal header block.
// The signal payload is never decoded; callers that need it copy record bytes
// via CopyRecords.
type Header struct {
	Version        string
	Patient        string
	Recording      string
	StartDate      string // dd.mm.yy
	StartTime      string // hh.mm.ss
	NumRecords     int
	RecordDuration string // seconds, raw ASCII field
	Signals        []Signal
}

// ReadHeader opens path and parses the fixed header and signal headers only.
// The payload is not read.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads an EDF header from r. r must be positioned at byte 0 of the file.
func Parse(r io.Reader) (*Header, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	field := func(off, width int) string {
		return strings.TrimSpace(string(fixed[off : off+width]))
	}

	ns, err := strconv.Atoi(field(252, 4))
	if err != nil || ns <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadSignalCount, field(252, 4))
	}

	numRecords, err := strconv.Atoi(field(236, 8))
	if err != nil {
		return nil, fmt.Errorf("invalid record count %q", field(236, 8))
	}

	h := &Header{
		Version:        field(0, 8),
		Patient:        field(8, 80),
		Recording:      field(88, 80),
		StartDate:      field(168, 8),
		StartTime:      field(176, 8),
		NumRecords:     numRecords,
		RecordDuration: field(244, 8),
		Signals:        make([]Signal, ns),
	}

	block := make([]byte, ns*SignalHeaderSize)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, fmt.Errorf("%w: signal headers: %v", ErrTruncatedHeader, err)
	}

	// Signal header fields are stored column-major: all labels, then all
	// transducers, and so on.
	off := 0
	col := func(width int) []string {
		out := make([]string, ns)
		for i := 0; i < ns; i++ {
			out[i] = strings.TrimSpace(string(block[off : off+width]))
			off += width
		}
		return out
	}

	labels := col(labelWidth)
	transducers := col(transducerWidth)
	dims := col(numWidth)
	physMin := col(numWidth)
	physMax := col(numWidth)
	digMin := col(numWidth)
	digMax := col(numWidth)
	prefilters := col(prefilterWidth)
	samples := col(numWidth)
	reserved := col(reservedWidth)

	for i := 0; i < ns; i++ {
		spr, err := strconv.Atoi(samples[i])
		if err != nil || spr <= 0 {
			return nil, fmt.Errorf("signal %d: invalid samples-per-record %q", i, samples[i])
		}
		h.Signals[i] = Signal{
			Label:            labels[i],
			Transducer:       transducers[i],
			PhysicalDim:      dims[i],
			PhysicalMin:      physMin[i],
			PhysicalMax:      physMax[i],
			DigitalMin:       digMin[i],
			DigitalMax:       digMax[i],
			Prefilter:        prefilters[i],
			SamplesPerRecord: spr,
			Reserved:         reserved[i],
		}
	}

	return h, nil
}

// Labels returns the signal labels in header order.
func (h *Header) Labels() []string {
	out := make([]string, len(h.Signals))
	for i, s := range h.Signals {
		out[i] = s.Label
	}
	return out
}

// StartDateTime decodes the header start date and time. Two-digit years follow
// the EDF clipping rule: 85-99 map to 1985-1999, 00-84 to 2000-2084.
func (h *Header) StartDateTime() (time.Time, error) {
	var day, month, year int
	if _, err := fmt.Sscanf(h.StartDate, "%d.%d.%d", &day, &month, &year); err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: %w", h.StartDate, err)
	}
	if year >= 85 {
		year += 1900
	} else {
		year += 2000
	}

	var hh, mm, ss int
	if _, err := fmt.Sscanf(h.StartTime, "%d.%d.%d", &hh, &mm, &ss); err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", h.StartTime, err)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid start date %q", h.StartDate)
	}
	return time.Date(year, time.Month(month), day, hh, mm, ss, 0, time.UTC), nil
}

// HeaderBytes returns the total on-disk header size for this header.
func (h *Header) HeaderBytes() int {
	return FixedHeaderSize + len(h.Signals)*SignalHeaderSize
}

// RecordSize returns the byte size of one data record.
func (h *Header) RecordSize() int {
	n := 0
	for _, s := range h.Signals {
		n += s.SamplesPerRecord * bytesPerSample
	}
	return n
}

// Select returns a copy of the header restricted to the given signal indices,
// in the given order. Indices must be valid for h.
func (h *Header) Select(keep []int) (*Header, error) {
	out := *h
	out.Signals = make([]Signal, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(h.Signals) {
			return nil, fmt.Errorf("signal index %d out of range (%d signals)", idx, len(h.Signals))
		}
		out.Signals = append(out.Signals, h.Signals[idx])
	}
	return &out, nil
}

// Marshal re-encodes the header as fixed-width ASCII. Overlong fields are
// truncated to their field width.
func (h *Header) Marshal() []byte {
	var b strings.Builder
	b.Grow(h.HeaderBytes())

	pad := func(s string, width int) {
		if len(s) > width {
			s = s[:width]
		}
		b.WriteString(s)
		b.WriteString(strings.Repeat(" ", width-len(s)))
	}

	pad(h.Version, 8)
	pad(h.Patient, 80)
	pad(h.Recording, 80)
	pad(h.StartDate, 8)
	pad(h.StartTime, 8)
	pad(strconv.Itoa(h.HeaderBytes()), 8)
	pad("", 44)
	pad(strconv.Itoa(h.NumRecords), 8)
	pad(h.RecordDuration, 8)
	pad(strconv.Itoa(len(h.Signals)), 4)

	each := func(width int, get func(Signal) string) {
		for _, s := range h.Signals {
			pad(get(s), width)
		}
	}
	each(labelWidth, func(s Signal) string { return s.Label })
	each(transducerWidth, func(s Signal) string { return s.Transducer })
	each(numWidth, func(s Signal) string { return s.PhysicalDim })
	each(numWidth, func(s Signal) string { return s.PhysicalMin })
	each(numWidth, func(s Signal) string { return s.PhysicalMax })
	each(numWidth, func(s Signal) string { return s.DigitalMin })
	each(numWidth, func(s Signal) string { return s.DigitalMax })
	each(prefilterWidth, func(s Signal) string { return s.Prefilter })
	each(numWidth, func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) })
	each(reservedWidth, func(s Signal) string { return s.Reserved })

	return []byte(b.String())
}

// CopyRecords copies the data records for the kept signals from src to dst.
// src must be positioned at the first data record of the original file, and
// orig must be the original (unselected) header describing src's layout. Signal
// bytes are copied verbatim; samples are never decoded.
func CopyRecords(dst io.Writer, src io.Reader, orig *Header, keep []int) error {
	offsets := make([]int, len(orig.Signals)+1)
	for i, s := range orig.Signals {
		offsets[i+1] = offsets[i] + s.SamplesPerRecord*bytesPerSample
	}
	recordSize := offsets[len(orig.Signals)]
	buf := make([]byte, recordSize)

	for rec := 0; orig.NumRecords < 0 || rec < orig.NumRecords; rec++ {
		_, err := io.ReadFull(src, buf)
		if err == io.EOF && orig.NumRecords < 0 {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read record %d: %w", rec, err)
		}
		for _, idx := range keep {
			if idx < 0 || idx >= len(orig.Signals) {
				return fmt.Errorf("signal index %d out of range (%d signals)", idx, len(orig.Signals))
			}
			if _, err := dst.Write(buf[offsets[idx]:offsets[idx+1]]); err != nil {
				return fmt.Errorf("write record %d: %w", rec, err)
			}
		}
	}
	return nil
}
