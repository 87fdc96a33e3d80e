package akm

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewRejectsInvalidParams(t *testing.T) {
	cfg := testConfig(9, 3, 5, 7)
	cfg.Params.SK = 0
	if _, err := New(cfg); !errors.Is(err, ErrFatalConfig) {
		t.Errorf("New() error = %v, want ErrFatalConfig", err)
	}
}

func TestNewRejectsUnsortedAddresses(t *testing.T) {
	cfg := testConfig(9, 3, 5, 7)
	// Swap two entries to break the ascending order.
	cfg.NodeAddresses = addrBytes(3, 9, 5, 7)
	if _, err := New(cfg); !errors.Is(err, ErrFatalConfig) {
		t.Errorf("New() error = %v, want ErrFatalConfig", err)
	}
}

func TestNewRejectsDuplicateAddresses(t *testing.T) {
	cfg := testConfig(9, 3, 5, 7)
	cfg.NodeAddresses = addrBytes(3, 5, 5, 9)
	if _, err := New(cfg); !errors.Is(err, ErrFatalConfig) {
		t.Errorf("New() error = %v, want ErrFatalConfig", err)
	}
}

func TestNewRejectsMismatchedAddressListLength(t *testing.T) {
	cfg := testConfig(9, 3, 5, 7)
	cfg.NodeAddresses = addrBytes(3, 5, 7) // only 3 addresses for N=4
	if _, err := New(cfg); !errors.Is(err, ErrFatalConfig) {
		t.Errorf("New() error = %v, want ErrFatalConfig", err)
	}
}

func TestNewRejectsUnknownSelf(t *testing.T) {
	cfg := testConfig(9, 3, 5, 7)
	cfg.SelfNodeAddress = addrBytes(11)
	if _, err := New(cfg); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("New() error = %v, want ErrUnknownSource", err)
	}
}

func TestNewAcceptsValidConfig(t *testing.T) {
	r := newRel(t, 9, 3, 5, 7)
	if r.N() != 4 {
		t.Errorf("N() = %d, want 4", r.N())
	}
	if !bytes.Equal(r.SelfAddress(), addrBytes(9)) {
		t.Errorf("SelfAddress() = %x, want %x", r.SelfAddress(), addrBytes(9))
	}
	if !bytes.Equal(r.Addresses(), addrBytes(3, 5, 7, 9)) {
		t.Errorf("Addresses() = %x, want %x", r.Addresses(), addrBytes(3, 5, 7, 9))
	}
	if r.MachState() != Offline {
		t.Errorf("MachState() before first Process = %v, want Offline", r.MachState())
	}
}

func TestParamsRoundTrips(t *testing.T) {
	cfg := testConfig(9, 3, 5, 7)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := cfg.Params.WithDefaults()
	if got := r.Params(); got != want {
		t.Errorf("Params() = %+v, want %+v", got, want)
	}
}

func TestProcessNoneBeforeAnyWorkYieldsSuccess(t *testing.T) {
	r := newRel(t, 9, 3, 5, 7)
	cmds := prime(t, r, 1000)
	last := cmds[len(cmds)-1]
	if last.Opcode != OpReturn {
		t.Fatalf("last command = %v, want Return", last.Opcode)
	}
	if Status(last.P1) != StatusSuccess {
		t.Errorf("Return status = %v, want Success", Status(last.P1))
	}
	if r.MachState() != NormalEstablishing {
		t.Errorf("MachState() after bootstrap = %v, want NormalEstablishing", r.MachState())
	}

	// A subsequent Process(None) with no pending work resolves in exactly
	// one Return and leaves state unchanged.
	cmd := r.Process(1000, EventNone, nil)
	if cmd.Opcode != OpReturn || Status(cmd.P1) != StatusSuccess {
		t.Errorf("idle Process(None) = %+v, want Return(Success)", cmd)
	}
}
