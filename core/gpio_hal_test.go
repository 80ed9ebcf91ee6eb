package core

import "testing"

func TestPinModeClassification(t *testing.T) {
	tests := []struct {
		mode   PinMode
		name   string
		output bool
		input  bool
	}{
		{PinUnconfigured, "unconfigured", false, false},
		{PinOutputLow, "output-low", true, false},
		{PinOutputHigh, "output-high", true, false},
		{PinInput, "input", false, true},
		{PinInputPullUp, "input-pullup", false, true},
		{PinInputPullDown, "input-pulldown", false, true},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if tt.mode.IsOutput() != tt.output {
			t.Errorf("%s: IsOutput() = %v", tt.name, !tt.output)
		}
		if tt.mode.IsInput() != tt.input {
			t.Errorf("%s: IsInput() = %v", tt.name, !tt.input)
		}
	}
}
