package ethiopian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEpochAnchor pins the epoch constant to its documented historical date.
func TestEpochAnchor(t *testing.T) {
	jdn, err := toJDN(Date{Year: 1, Month: 1, Day: 1})
	require.NoError(t, err)
	assert.Equal(t, Epoch, jdn)
	assert.Equal(t, 1724221, jdn, "1 Meskerem 1 E.C. must stay anchored at JDN 1724221")

	// 29 August 8 AD (Julian) is 27 August 8 AD in the proleptic Gregorian calendar.
	assert.Equal(t, GregorianDate{Year: 8, Month: 8, Day: 27}, jdnToGregorian(Epoch))
}

// TestGregorianToJDN_KnownValues checks the astronomical algorithm against published day numbers.
func TestGregorianToJDN_KnownValues(t *testing.T) {
	tests := []struct {
		date GregorianDate
		jdn  int
	}{
		{GregorianDate{2000, 1, 1}, 2451545},
		{GregorianDate{1970, 1, 1}, 2440588},
		{GregorianDate{1858, 11, 17}, 2400001},
		{GregorianDate{2023, 9, 11}, 2460199},
		{GregorianDate{-4713, 11, 24}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.date.String(), func(t *testing.T) {
			got, err := gregorianToJDN(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.jdn, got)
		})
	}
}

// TestJDN_EthiopianRoundTrip walks every day across several centuries, in both directions.
func TestJDN_EthiopianRoundTrip(t *testing.T) {
	// Date -> JDN -> Date, and consecutive dates must be consecutive day numbers.
	prev := Epoch - 1
	for year := 1; year <= 2600; year++ {
		for month := 1; month <= 13; month++ {
			for day := 1; day <= DaysInMonth(year, month); day++ {
				d := Date{Year: year, Month: month, Day: day}
				jdn, err := toJDN(d)
				if err != nil {
					t.Fatalf("toJDN(%v): %v", d, err)
				}
				if jdn != prev+1 {
					t.Fatalf("toJDN(%v) = %d, want %d", d, jdn, prev+1)
				}
				prev = jdn

				back, err := fromJDN(jdn)
				if err != nil {
					t.Fatalf("fromJDN(%d): %v", jdn, err)
				}
				if back != d {
					t.Fatalf("fromJDN(toJDN(%v)) = %v", d, back)
				}
			}
		}
	}
}

// TestJDN_GregorianRoundTrip verifies that the Fliegel-Van Flandern form inverts the forward algorithm.
func TestJDN_GregorianRoundTrip(t *testing.T) {
	start := Epoch
	end := Epoch + 2600*366
	for jdn := start; jdn <= end; jdn++ {
		g := jdnToGregorian(jdn)
		if err := g.Validate(); err != nil {
			t.Fatalf("jdnToGregorian(%d) = %v: %v", jdn, g, err)
		}
		back, err := gregorianToJDN(g)
		if err != nil {
			t.Fatalf("gregorianToJDN(%v): %v", g, err)
		}
		if back != jdn {
			t.Fatalf("gregorianToJDN(jdnToGregorian(%d)) = %d", jdn, back)
		}
	}
}

// TestFromJDN_BeforeEpoch ensures the inverse never fabricates year 0 dates.
func TestFromJDN_BeforeEpoch(t *testing.T) {
	_, err := fromJDN(Epoch - 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

// TestFromJDN_LeapDay checks the last offset of a four-year cycle.
func TestFromJDN_LeapDay(t *testing.T) {
	d, err := fromJDN(Epoch + leapDayOffset)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 4, Month: Pagume, Day: 6}, d)

	d, err = fromJDN(Epoch + daysPerCycle)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 5, Month: Meskerem, Day: 1}, d)
}

func TestFloorDivMod(t *testing.T) {
	tests := []struct {
		a, b, div, mod int
	}{
		{7, 4, 1, 3},
		{-7, 4, -2, 1},
		{-8, 4, -2, 0},
		{0, 4, 0, 0},
		{7, -4, -2, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.div, floorDiv(tt.a, tt.b), "floorDiv(%d, %d)", tt.a, tt.b)
		assert.Equal(t, tt.mod, floorMod(tt.a, tt.b), "floorMod(%d, %d)", tt.a, tt.b)
	}
}
