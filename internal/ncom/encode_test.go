package ncom

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeMatchesWireFormat(t *testing.T) {
	want := createTestPacket()
	raw, err := Extract(want)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := Encode(raw); !bytes.Equal(got, want) {
		t.Errorf("Encode(Extract(p)) != p\n got % x\nwant % x", got, want)
	}
}

func TestExtractEncodeRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(71))
	for i := 0; i < 500; i++ {
		raw := RawPacket{
			Sync:          SyncByte,
			Time:          uint16(rng.Intn(60000)),
			AccX:          randInt24(rng),
			AccY:          randInt24(rng),
			AccZ:          randInt24(rng),
			AngX:          randInt24(rng),
			AngY:          randInt24(rng),
			AngZ:          randInt24(rng),
			NavStat:       uint8(rng.Intn(256)),
			Checksum1:     uint8(rng.Intn(256)),
			Lat:           math.Float64frombits(rng.Uint64()),
			Long:          math.Float64frombits(rng.Uint64()),
			Alti:          rng.Uint32(),
			VelNorth:      randInt24(rng),
			VelEast:       randInt24(rng),
			VelDown:       randInt24(rng),
			Heading:       randInt24(rng),
			Pitch:         uint32(rng.Intn(MaxUint24 + 1)),
			Roll:          uint32(rng.Intn(MaxUint24 + 1)),
			Checksum2:     uint8(rng.Intn(256)),
			StatusChannel: uint8(rng.Intn(256)),
		}
		rng.Read(raw.Status[:])

		got, err := Extract(Encode(raw))
		if err != nil {
			t.Fatalf("iteration %d: Extract failed: %v", i, err)
		}

		// Doubles must survive bit-exact, including NaN payloads.
		if math.Float64bits(got.Lat) != math.Float64bits(raw.Lat) ||
			math.Float64bits(got.Long) != math.Float64bits(raw.Long) {
			t.Fatalf("iteration %d: position bits changed: %x/%x -> %x/%x", i,
				math.Float64bits(raw.Lat), math.Float64bits(raw.Long),
				math.Float64bits(got.Lat), math.Float64bits(got.Long))
		}
		got.Lat, got.Long, raw.Lat, raw.Long = 0, 0, 0, 0
		if diff := cmp.Diff(raw, got); diff != "" {
			t.Fatalf("iteration %d: round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestScaleUnscaleWithinOneStep(t *testing.T) {
	rng := rand.New(rand.NewSource(3000))
	for i := 0; i < 500; i++ {
		raw := NewRawPacket()
		raw.AccX, raw.AngY, raw.VelDown, raw.Heading = randInt24(rng), randInt24(rng), randInt24(rng), randInt24(rng)
		raw.Pitch = uint32(rng.Intn(MaxUint24 + 1))
		raw.Roll = uint32(rng.Intn(MaxUint24 + 1))
		raw.NavStat = uint8(rng.Intn(256))

		rec := Scale(raw)
		back := Unscale(&rec)

		for _, c := range []struct {
			name      string
			got, want int64
		}{
			{"AccX", int64(back.AccX), int64(raw.AccX)},
			{"AngY", int64(back.AngY), int64(raw.AngY)},
			{"Vel_Down", int64(back.VelDown), int64(raw.VelDown)},
			{"Heading", int64(back.Heading), int64(raw.Heading)},
			{"Pitch", int64(back.Pitch), int64(raw.Pitch)},
			{"Roll", int64(back.Roll), int64(raw.Roll)},
		} {
			if d := c.got - c.want; d < -1 || d > 1 {
				t.Fatalf("iteration %d: %s raw %d came back as %d", i, c.name, c.want, c.got)
			}
		}
		if back.NavStat != raw.NavStat {
			t.Fatalf("iteration %d: NavStat %d came back as %d", i, raw.NavStat, back.NavStat)
		}
	}
}

func TestEncodeTruncatesToFieldWidth(t *testing.T) {
	raw := NewRawPacket()
	raw.AccX = MaxInt24 + 1
	raw.Pitch = MaxUint24 + 2

	got, err := Extract(Encode(raw))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.AccX != MinInt24 {
		t.Errorf("AccX = %d, want %d", got.AccX, MinInt24)
	}
	if got.Pitch != 1 {
		t.Errorf("Pitch = %d, want 1", got.Pitch)
	}
}

func randInt24(rng *rand.Rand) int32 {
	return int32(rng.Intn(MaxUint24+1)) + MinInt24
}
