package publish

import (
	"errors"
	"testing"

	"sumobot/drivers/vl53l0x"
)

type fakeClient struct {
	addr, qty uint16
	value     []byte
	err       error
}

func (f *fakeClient) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	f.addr, f.qty = address, quantity
	f.value = append([]byte(nil), value...)
	return nil, f.err
}

func TestPublishBlock(t *testing.T) {
	fc := &fakeClient{}
	p := &Publisher{client: fc, address: 100}

	err := p.Publish(Reading{
		Cycle:  0x00012345,
		Fresh:  true,
		Alerts: 0x4,
		Ranges: [vl53l0x.NumPositions]uint16{120, vl53l0x.OutOfRange, 0x0102},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if fc.addr != 100 || fc.qty != BlockSize {
		t.Fatalf("wrote %d registers at %d", fc.qty, fc.addr)
	}

	want := []byte{
		0x00, 0x01, // cycle high
		0x23, 0x45, // cycle low
		0x00, FlagFresh,
		0x00, 0x04,
		0x00, 120,
		0x1F, 0xFE, // 8190
		0x01, 0x02,
	}
	if string(fc.value) != string(want) {
		t.Errorf("payload = % x, want % x", fc.value, want)
	}
}

func TestPublishError(t *testing.T) {
	fc := &fakeClient{err: errors.New("exception '2' (illegal data address)")}
	p := &Publisher{client: fc}
	if err := p.Publish(Reading{Error: true}); err == nil {
		t.Fatal("expected error from the client")
	}
	if fc.value[5] != FlagError {
		t.Errorf("flags = %#x, want error flag", fc.value[5])
	}
}

func TestAlerts(t *testing.T) {
	tests := []struct {
		ranges [vl53l0x.NumPositions]uint16
		th     [vl53l0x.NumPositions]uint16
		want   uint16
	}{
		{[3]uint16{100, 200, 300}, [3]uint16{}, 0},
		{[3]uint16{100, 200, 300}, [3]uint16{150, 150, 150}, 0x1},
		{[3]uint16{100, 200, 300}, [3]uint16{0, 250, 400}, 0x6},
		{[3]uint16{vl53l0x.OutOfRange, 0, 0}, [3]uint16{150, 0, 1}, 0x4},
	}
	for _, tt := range tests {
		if got := Alerts(tt.ranges, tt.th); got != tt.want {
			t.Errorf("Alerts(%v, %v) = %#x, want %#x", tt.ranges, tt.th, got, tt.want)
		}
	}
}

func TestDialRequiresEndpoint(t *testing.T) {
	if _, err := Dial(Config{}); err == nil {
		t.Error("expected error without endpoint")
	}
}
