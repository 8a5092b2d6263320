package placement

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Resolver maps a node address to its (region, rack) pair. It is the
// capability contract §9 describes as an "injected dependency" — the
// core never talks to a coordination service or DNS server directly.
//
// Resolve must never fail in a way that blocks placement: a Resolver
// that cannot determine a rack should return ("", "") and let the
// caller (TopologyIndex) fall back to the default region/rack, rather
// than returning an error that the core would have to swallow anyway.
type Resolver interface {
	Resolve(addr string) (region, rack string)
}

// DefaultResolver maps every address to DefaultRegion/DefaultRack. It
// is used when NewPolicy is called without an injected resolver,
// mirroring the "when absent, a default resolver is used" rule in
// spec §6.
type DefaultResolver struct{}

func (DefaultResolver) Resolve(string) (string, string) {
	return DefaultRegion, DefaultRack
}

// StaticResolver is a deterministic, test-friendly resolver backed by
// an explicit address -> rack table. Addresses absent from the table
// resolve to the default region/rack. It plays the role the source
// ecosystem's StaticDNSResolver class plays in tests.
type StaticResolver struct {
	racks map[string]string
}

// NewStaticResolver builds a StaticResolver from an address -> rack
// path map, e.g. {"10.0.0.1:3181": "/r1/rack1"}.
func NewStaticResolver(racks map[string]string) *StaticResolver {
	r := &StaticResolver{racks: make(map[string]string, len(racks))}
	for addr, rack := range racks {
		r.racks[addr] = rack
	}
	return r
}

// Add registers or overwrites the rack for an address.
func (r *StaticResolver) Add(addr, rack string) {
	r.racks[addr] = rack
}

func (r *StaticResolver) Resolve(addr string) (string, string) {
	rack, ok := r.racks[addr]
	if !ok || rack == "" {
		return DefaultRegion, DefaultRack
	}
	return regionOfRack(rack), rack
}

// regionOfRack derives a region label from a rack path by convention:
// the first non-empty "/"-separated segment. A malformed or empty rack
// path derives DefaultRegion.
func regionOfRack(rack string) string {
	for _, seg := range strings.Split(rack, "/") {
		if seg != "" {
			return seg
		}
	}
	return DefaultRegion
}

// DNSRackResolver resolves an address's rack path from a TXT record
// published under a per-deployment domain, e.g. the TXT record for
// "10.0.0.1.racks.example.com" holding "/region1/rack1". This is the
// DNSResolverClass named in spec §3/§6 for deployments that already
// publish topology via DNS rather than a coordination service.
//
// Resolution failures (NXDOMAIN, timeout, malformed TXT) never
// propagate as errors; Resolve falls back to ("", "") so the
// TopologyIndex defaults the address to DefaultRegion/DefaultRack,
// per the Resolver contract's "never fail in a way that blocks
// placement" rule.
type DNSRackResolver struct {
	// Suffix is appended to the address to form the TXT query name,
	// e.g. "racks.example.com".
	Suffix string
	// Server is the resolver to query, e.g. "127.0.0.1:53".
	Server string
	// Timeout bounds each query; zero uses a 2 second default.
	Timeout time.Duration

	client *dns.Client
}

// NewDNSRackResolver builds a DNSRackResolver querying server for TXT
// records under suffix.
func NewDNSRackResolver(server, suffix string) *DNSRackResolver {
	return &DNSRackResolver{
		Suffix:  suffix,
		Server:  server,
		Timeout: 2 * time.Second,
		client:  &dns.Client{},
	}
}

func (r *DNSRackResolver) Resolve(addr string) (string, string) {
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}

	client := r.client
	if client == nil {
		client = &dns.Client{}
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	client.Timeout = timeout

	qname := dns.Fqdn(fmt.Sprintf("%s.%s", host, r.Suffix))
	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeTXT)

	reply, _, err := client.Exchange(msg, r.Server)
	if err != nil || reply == nil || reply.Rcode != dns.RcodeSuccess {
		return "", ""
	}
	for _, ans := range reply.Answer {
		txt, ok := ans.(*dns.TXT)
		if !ok || len(txt.Txt) == 0 {
			continue
		}
		rack := txt.Txt[0]
		if rack == "" {
			continue
		}
		return regionOfRack(rack), rack
	}
	return "", ""
}
