package protocol

import "time"

// filetimeEpochDelta is the number of 100-ns intervals between the
// Windows FILETIME epoch (1601-01-01 00:00:00 UTC) and the Unix epoch
// (1970-01-01 00:00:00 UTC).
const filetimeEpochDelta = 116444736000000000

// ToFileTime converts t to a 64-bit Windows FILETIME: 100-ns ticks since
// 1601-01-01 UTC.
func ToFileTime(t time.Time) uint64 {
	u := t.UTC()
	ticks := u.Unix()*10_000_000 + int64(u.Nanosecond()/100)
	return uint64(ticks + filetimeEpochDelta)
}

// FileTimeToTime converts a 64-bit FILETIME back to a time.Time.
func FileTimeToTime(ft uint64) time.Time {
	ticks := int64(ft) - filetimeEpochDelta
	sec := ticks / 10_000_000
	nsec := (ticks % 10_000_000) * 100
	return time.Unix(sec, nsec).UTC()
}

// SplitFileTime splits a 64-bit FILETIME into its high and low 32-bit
// halves, as emitted on the wire by e.g. the systime handler.
func SplitFileTime(ft uint64) (hi, lo uint32) {
	return uint32(ft >> 32), uint32(ft)
}

// JoinFileTime reassembles a 64-bit FILETIME from its halves.
func JoinFileTime(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

// Now returns the current time as a 64-bit FILETIME.
func Now() uint64 { return ToFileTime(time.Now()) }
