package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tailored-agentic-units/alfred/tools"
)

type conditions struct {
	name  string
	tempC int
}

var weatherTable = []conditions{
	{"Rainy", 15},
	{"Clear", 25},
	{"Windy", 20},
}

func (t *Toolset) weatherInfo(_ context.Context, _ *tools.SessionContext, args json.RawMessage) (tools.Result, error) {
	var in struct {
		Location string `json:"location"`
	}
	if err := tools.DecodeArgs(args, &in); err != nil {
		return tools.Result{}, err
	}

	w := weatherTable[t.pick(len(weatherTable))]
	return tools.Result{Content: fmt.Sprintf("Weather in %s: %s, %d°C", in.Location, w.name, w.tempC)}, nil
}
