package constants

// Equivalent full-load heating hours for NYC buildings, keyed by height
// class and construction era. Older envelopes and taller buildings run
// their heating plant longer.

// LowRiseMaxFloors splits the EFLH table: at or below this floor count a
// building uses the low-rise row.
const LowRiseMaxFloors = 6

// Construction-era boundaries for the EFLH table columns.
const (
	eraPreWarEnd  = 1939
	eraPostWarEnd = 1978
	eraModernEnd  = 2006
)

var (
	// eflhLowRise covers buildings of LowRiseMaxFloors floors or fewer:
	// pre-1939, 1940-1978, 1979-2006, 2007+.
	eflhLowRise = [4]float64{1100, 950, 800, 650}
	// eflhHighRise covers buildings above LowRiseMaxFloors floors.
	eflhHighRise = [4]float64{1200, 1020, 880, 720}
)

// LookupEFLH returns the equivalent full-load heating hours for a building
// given its construction year and floor count.
func LookupEFLH(constructionYear, floorCount int) float64 {
	var era int
	switch {
	case constructionYear <= eraPreWarEnd:
		era = 0
	case constructionYear <= eraPostWarEnd:
		era = 1
	case constructionYear <= eraModernEnd:
		era = 2
	default:
		era = 3
	}
	if floorCount > LowRiseMaxFloors {
		return eflhHighRise[era]
	}
	return eflhLowRise[era]
}
