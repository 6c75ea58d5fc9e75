package acceptor

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"greeter/internal/sys/sockopt"
)

func TestResolve_WildcardOrder(t *testing.T) {
	tests := []struct {
		network string
		want    []Candidate
	}{
		{"tcp", []Candidate{
			{Family: sockopt.AFInet6, Addr: netip.MustParseAddrPort("[::]:80")},
			{Family: sockopt.AFInet, Addr: netip.MustParseAddrPort("0.0.0.0:80")},
		}},
		{"tcp4", []Candidate{
			{Family: sockopt.AFInet, Addr: netip.MustParseAddrPort("0.0.0.0:80")},
		}},
		{"tcp6", []Candidate{
			{Family: sockopt.AFInet6, Addr: netip.MustParseAddrPort("[::]:80"), V6Only: true},
		}},
	}

	for _, test := range tests {
		got, err := Resolve(context.Background(), nil, "", 80, test.network)
		if err != nil {
			t.Fatalf("Resolve(%s) returned an error: %v", test.network, err)
		}
		if len(got) != len(test.want) {
			t.Fatalf("Resolve(%s): expected %d candidates, got %d (%v)", test.network, len(test.want), len(got), got)
		}
		for i := range got {
			if got[i] != test.want[i] {
				t.Errorf("Resolve(%s)[%d]: expected %v, got %v", test.network, i, test.want[i], got[i])
			}
		}
	}
}

func TestResolve_LiteralFilteredByNetwork(t *testing.T) {
	got, err := Resolve(context.Background(), nil, "::ffff:127.0.0.1", 8080, "tcp4")
	if err != nil {
		t.Fatalf("Resolve() returned an error: %v", err)
	}
	if len(got) != 1 || got[0].Family != sockopt.AFInet || got[0].Addr.String() != "127.0.0.1:8080" {
		t.Errorf("Expected a single unmapped IPv4 candidate, got %v", got)
	}

	_, err = Resolve(context.Background(), nil, "::1", 8080, "tcp4")
	if !errors.Is(err, ErrResolve) {
		t.Errorf("Expected ErrResolve for an IPv6 literal on tcp4, got %v", err)
	}
}

func TestResolve_LookupFailure(t *testing.T) {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, errors.New("dns disabled in test")
		},
	}
	_, err := Resolve(context.Background(), r, "greeter.invalid", 80, "tcp")
	if !errors.Is(err, ErrResolve) {
		t.Errorf("Expected ErrResolve, got %v", err)
	}
}

func TestResolve_RejectsBadInput(t *testing.T) {
	if _, err := Resolve(context.Background(), nil, "", 80, "udp"); !errors.Is(err, ErrResolve) {
		t.Errorf("Expected ErrResolve for network udp, got %v", err)
	}
	if _, err := Resolve(context.Background(), nil, "", 65536, "tcp"); !errors.Is(err, ErrResolve) {
		t.Errorf("Expected ErrResolve for port 65536, got %v", err)
	}
}
