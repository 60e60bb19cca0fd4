package pipeline

import "github.com/okian/wattcast/internal/domain/reading"

// FeatureCount is the width of the vector the artifacts were fitted on.
const FeatureCount = 6

// Column positions. The fitted transformers depend on this exact order.
const (
	ColGlobalReactivePower = iota
	ColVoltage
	ColGlobalIntensity
	ColSubMetering1
	ColSubMetering2
	ColSubMetering3
)

// ColumnNames holds the training-time column names in vector order.
var ColumnNames = [FeatureCount]string{
	"Global_reactive_power",
	"Voltage",
	"Global_intensity",
	"Sub_metering_1",
	"Sub_metering_2",
	"Sub_metering_3",
}

// FeatureVector is the ordered input of the scaler.
type FeatureVector [FeatureCount]float64

// Assemble places the readings and the configured voltage in column order.
func Assemble(r reading.ReadingSet, voltage float64) FeatureVector {
	var v FeatureVector
	v[ColGlobalReactivePower] = r.GlobalReactivePower
	v[ColVoltage] = voltage
	v[ColGlobalIntensity] = r.GlobalIntensity
	v[ColSubMetering1] = r.SubMetering1
	v[ColSubMetering2] = r.SubMetering2
	v[ColSubMetering3] = r.SubMetering3
	return v
}
