package protocol

import (
	"testing"
	"time"
)

func TestFileTimeRoundTrip(t *testing.T) {
	want := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	ft := ToFileTime(want)
	got := FileTimeToTime(ft)
	if !got.Equal(want) {
		t.Fatalf("FileTimeToTime(ToFileTime(t)) = %v, want %v", got, want)
	}
}

func TestFileTimeSplitJoin(t *testing.T) {
	ft := Now()
	hi, lo := SplitFileTime(ft)
	if JoinFileTime(hi, lo) != ft {
		t.Fatalf("split/join did not round trip for 0x%016X", ft)
	}
}

func TestFileTimeUnixEpoch(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	ft := ToFileTime(epoch)
	if ft != filetimeEpochDelta {
		t.Fatalf("FILETIME for unix epoch = %d, want %d", ft, filetimeEpochDelta)
	}
}
