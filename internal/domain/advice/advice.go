// Package advice picks the sub-metering channel consuming the most energy and
// the advisory message that goes with it.
package advice

import "strconv"

// Submeter identifies one of the three sub-metering channels.
type Submeter int

// Sub-metering channels.
const (
	Submeter1 Submeter = 1 // kitchen
	Submeter2 Submeter = 2 // laundry and water heating
	Submeter3 Submeter = 3 // heating, cooling and other utilities
)

var messages = map[Submeter]string{
	Submeter1: "Check kitchen appliances; they consume the most energy.",
	Submeter2: "Laundry or water heating appliances are consuming most energy.",
	Submeter3: "Heating, AC, or other utilities are consuming most energy.",
}

// Select returns the channel with the strictly greatest reading and its
// advisory message. Ties resolve to the lowest-numbered channel.
func Select(sm1, sm2, sm3 float64) (Submeter, string) {
	top, best := Submeter1, sm1
	if sm2 > best {
		top, best = Submeter2, sm2
	}
	if sm3 > best {
		top = Submeter3
	}
	return top, messages[top]
}

// Message returns the fixed advisory text for s, or "" for an unknown channel.
func Message(s Submeter) string {
	return messages[s]
}

// Valid reports whether s names one of the three channels.
func (s Submeter) Valid() bool {
	return s >= Submeter1 && s <= Submeter3
}

// Label returns the dataset column name of the channel, e.g. "Sub_metering_2".
func (s Submeter) Label() string {
	if !s.Valid() {
		return ""
	}
	return "Sub_metering_" + strconv.Itoa(int(s))
}
