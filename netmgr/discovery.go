// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netmgr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/miekg/dns"
)

// dohContentType is the RFC 8484 media type for DNS-over-HTTPS exchanges.
const dohContentType = "application/dns-message"

// maxDoHResponseSize bounds the resolver response body.  A DNS message over
// HTTPS has no business exceeding the classic 64KiB TCP message limit.
const maxDoHResponseSize = 65535

// dohQuery resolves the A records of host through a single DNS-over-HTTPS
// resolver endpoint.
func dohQuery(ctx context.Context, client *http.Client, resolverURL,
	host string) ([]net.IP, error) {

	var q dns.Msg
	q.SetQuestion(dns.Fqdn(host), dns.TypeA)
	q.RecursionDesired = true
	packed, err := q.Pack()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resolverURL,
		bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", dohContentType)
	req.Header.Set("Accept", dohContentType)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDoHResponseSize))
	if err != nil {
		return nil, err
	}

	var answer dns.Msg
	if err := answer.Unpack(body); err != nil {
		return nil, err
	}
	if answer.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("resolver rcode %s", dns.RcodeToString[answer.Rcode])
	}

	var ips []net.IP
	for _, rr := range answer.Answer {
		if a, ok := rr.(*dns.A); ok {
			ips = append(ips, a.A)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no A records for %s", host)
	}
	return ips, nil
}

// resolveSeed resolves one DNS seed hostname, trying each configured
// DNS-over-HTTPS resolver in order and returning the first success.
func (m *Manager) resolveSeed(ctx context.Context, seed string) ([]net.IP, error) {
	var lastErr error
	for _, resolver := range m.cfg.Params.DoHResolvers {
		ips, err := dohQuery(ctx, m.httpClient, resolver, seed)
		if err != nil {
			log.Debugf("Seed %s via %s failed: %v", seed, resolver, err)
			lastErr = err
			continue
		}
		return ips, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no resolvers configured")
	}
	return nil, lastErr
}

// discoverSeedPeers resolves every DNS seed and merges the results into the
// candidate pool.  Resolution failures are silent from the control loop's
// perspective; the next cycle simply retries.
func (m *Manager) discoverSeedPeers(ctx context.Context) {
	port := m.cfg.Params.DefaultPort
	for _, seed := range m.cfg.Params.DNSSeeds {
		ips, err := m.resolveSeed(ctx, seed)
		if err != nil {
			log.Debugf("DNS seed %s yielded no peers: %v", seed, err)
			continue
		}
		for _, ip := range ips {
			addr := net.JoinHostPort(ip.String(), port)
			m.addCandidate(addr)
		}
		log.Debugf("DNS seed %s yielded %d peers", seed, len(ips))
	}
}

// newSeedHTTPClient returns the HTTP client used for DNS-over-HTTPS
// resolution.  Each resolver attempt relies on this client's timeout; there
// is no additional per-resolver deadline.
func newSeedHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
