package models

import (
	"fmt"
	"strings"
)

// Channel is a logical sensor category grouping one or more sensor IDs.
type Channel string

const (
	Temperature Channel = "temperature"
	Humidity    Channel = "humidity"
	Gas         Channel = "gas"
	Light       Channel = "light"
	Water       Channel = "water"
)

// Kind tells continuous readings apart from presence/absence readings.
type Kind int

const (
	Continuous Kind = iota
	Boolean
)

// ChannelInfo is the fixed presentation metadata of a channel.
type ChannelInfo struct {
	Name       string
	Unit       string
	Title      string
	YAxisTitle string
	Color      string
	Kind       Kind
	SensorIDs  []int
}

var channelOrder = []Channel{Temperature, Humidity, Gas, Light, Water}

var channelInfo = map[Channel]ChannelInfo{
	Temperature: {Name: "Temperature", Unit: "°C", Title: "Temperature (°C)", YAxisTitle: "Temp (°C)", Color: "#3b82f6", Kind: Continuous, SensorIDs: []int{1, 6}},
	Humidity:    {Name: "Humidity", Unit: "%", Title: "Humidity (%)", YAxisTitle: "Humidity (%)", Color: "#10b981", Kind: Continuous, SensorIDs: []int{2}},
	Gas:         {Name: "Gas", Unit: "boolean", Title: "Gas (boolean)", YAxisTitle: "Gas (0/1)", Color: "#f59e0b", Kind: Boolean, SensorIDs: []int{3}},
	Light:       {Name: "Light", Unit: "boolean", Title: "Light (boolean)", YAxisTitle: "Light (0/1)", Color: "#eab308", Kind: Boolean, SensorIDs: []int{4}},
	Water:       {Name: "Water", Unit: "boolean", Title: "Water (boolean)", YAxisTitle: "Water (0/1)", Color: "#06b6d4", Kind: Boolean, SensorIDs: []int{5}},
}

// Channels returns the five channels in canonical display order.
func Channels() []Channel {
	out := make([]Channel, len(channelOrder))
	copy(out, channelOrder)
	return out
}

// Info returns the metadata of c. Unknown channels yield a zero value.
func (c Channel) Info() ChannelInfo {
	return channelInfo[c]
}

func (c Channel) Valid() bool {
	_, ok := channelInfo[c]
	return ok
}

func (c Channel) String() string { return string(c) }

// ParseChannel accepts a channel name in any case.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown channel %q", s)
	}
	return c, nil
}

var sensorNames = map[int]string{
	1: "Temperature 1",
	2: "Humidity",
	3: "Gas",
	4: "Light",
	5: "Water",
	6: "Temperature 2",
}

// SensorName is the human-readable name of a physical sensor.
func SensorName(sensorID int) string {
	if name, ok := sensorNames[sensorID]; ok {
		return name
	}
	return fmt.Sprintf("Sensor %d", sensorID)
}

// SensorUnit is the unit a physical sensor reports in, empty when unknown.
func SensorUnit(sensorID int) string {
	for _, info := range channelInfo {
		for _, id := range info.SensorIDs {
			if id == sensorID {
				return info.Unit
			}
		}
	}
	return ""
}
