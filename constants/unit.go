package constants

import "strings"

// Unit is the measure a pantry quantity is expressed in.
type Unit string

const (
	Grams  Unit = "grams"
	Kg     Unit = "kg"
	Ml     Unit = "ml"
	Liters Unit = "liters"
	Pieces Unit = "pieces"
	Loaf   Unit = "loaf"
	Pack   Unit = "pack"
)

// DefaultUnit is used for receipt lines, which never carry a unit.
const DefaultUnit = Pieces

var allUnits = []Unit{Grams, Kg, Ml, Liters, Pieces, Loaf, Pack}

// ParseUnit matches case-insensitively; unknown input returns DefaultUnit and false.
func ParseUnit(s string) (Unit, bool) {
	n := strings.ToLower(strings.TrimSpace(s))
	for _, u := range allUnits {
		if n == string(u) {
			return u, true
		}
	}
	return DefaultUnit, false
}
