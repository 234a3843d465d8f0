// Package edf reads and re-emits European Data Format (EDF) headers.
//
// Only the fixed 256-byte ASCII header and the per-signal header block are
// parsed; the signal payload is treated as opaque bytes. This is deliberate:
// corpus indexing needs subject, date, and channel metadata without paying for
// a full data load, and conversion only ever moves payload bytes, never
// interprets them.
//
// # Reading
//
//	h, err := edf.ReadHeader("/corpus/train/normal/01_tcp_ar/aaaaaaav_s004_t000.edf")
//	labels := h.Labels()          // "EEG FP1-REF", "EEG CZ-REF", ...
//	start, _ := h.StartDateTime() // header start date/time, clipped-century rule
//
// # Channel subsetting
//
// A recording restricted to a subset of its signals is produced by rewriting
// the header with Select+Marshal and copying record byte ranges with
// CopyRecords. EDF records interleave signals as contiguous fixed-size sample
// blocks, so dropping a channel is a byte-range copy:
//
//	sub, _ := h.Select(keep)
//	_, _ = out.Write(sub.Marshal())
//	_ = edf.CopyRecords(out, payload, h, keep)
package edf
