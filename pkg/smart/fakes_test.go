package smart

import (
	"context"
	"errors"
)

var errIO = errors.New("i/o error")

type fakeATA struct {
	identify   []byte
	data       []byte
	thresholds []byte
	log        []byte
	mid, high  uint8
	statusErr  error
	sent       []Command
	closed     bool
}

func newFakeATA() *fakeATA {
	return &fakeATA{
		identify:   identifyPage("ST4000NM0035-1V4107", "ZC1", "TN04", true, true),
		data:       sampleSmartPage(),
		thresholds: thresholdPage(sampleAttrs...),
		mid:        0x4f,
		high:       0xc2,
	}
}

func (f *fakeATA) Tech() Tech { return TechATA }

func (f *fakeATA) SendCommand(_ context.Context, cmd Command) error {
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeATA) Close() error {
	f.closed = true
	return nil
}

func (f *fakeATA) Identify(context.Context) ([]byte, error) { return f.identify, nil }

func (f *fakeATA) ReadSmartData(context.Context) ([]byte, error) {
	if f.data == nil {
		return nil, errIO
	}
	return f.data, nil
}

func (f *fakeATA) ReadThresholds(context.Context) ([]byte, error) {
	if f.thresholds == nil {
		return nil, errIO
	}
	return f.thresholds, nil
}

func (f *fakeATA) ReadLog(_ context.Context, addr uint8) ([]byte, error) {
	if addr != ATALogSelfTest || f.log == nil {
		return nil, errIO
	}
	return f.log, nil
}

func (f *fakeATA) ReturnStatus(context.Context) (uint8, uint8, error) {
	return f.mid, f.high, f.statusErr
}

type fakeSCSI struct {
	Pages
	sent   []Command
	closed bool
}

func newFakeSCSI() *fakeSCSI {
	return &fakeSCSI{Pages: healthySCSIPages()}
}

func (f *fakeSCSI) Tech() Tech { return TechSCSI }

func (f *fakeSCSI) SendCommand(_ context.Context, cmd Command) error {
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSCSI) Close() error {
	f.closed = true
	return nil
}

func fakeOpener(devs map[string]Device) Opener {
	return func(_ context.Context, path string) (Device, error) {
		d, ok := devs[path]
		if !ok {
			return nil, failedf("open", "no such device %s", path)
		}
		return d, nil
	}
}
