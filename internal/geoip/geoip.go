// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client IPs to ISO country codes with a MaxMind
// GeoLite2-Country database. Lookups degrade to empty results when no
// database is configured, so callers never need to branch on availability.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// CountryLocal is returned for private, link-local, and loopback addresses.
const CountryLocal = "LOCAL"

var privateCIDRs []*net.IPNet

func init() {
	for _, block := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"fe80::/10",
	} {
		if _, cidr, err := net.ParseCIDR(block); err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Resolver maps IP addresses to country codes. The zero value is disabled
// and returns empty results; call Open to load a database.
type Resolver struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
}

// NewResolver returns a disabled Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Open loads the database at path. An empty path leaves the resolver
// disabled without error.
func (r *Resolver) Open(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.path = path
	if path == "" {
		return nil
	}
	return r.load()
}

// Reload re-reads the database file if it changed on disk. Safe to call
// periodically.
func (r *Resolver) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return nil
	}
	return r.load()
}

// load opens or reopens the database. Caller holds the write lock.
func (r *Resolver) load() error {
	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("geoip database %s: %w", r.path, err)
	}
	if r.db != nil && info.ModTime().Equal(r.modTime) {
		return nil
	}

	db, err := maxminddb.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}
	if r.db != nil {
		_ = r.db.Close()
	}
	r.db = db
	r.modTime = info.ModTime()
	return nil
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Country returns the two-letter ISO code for an IP, CountryLocal for
// private and loopback addresses, or "" when the IP is invalid or the
// resolver is disabled.
func (r *Resolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || isPrivate(parsed) {
		return CountryLocal
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.db == nil {
		return ""
	}
	var record countryRecord
	if err := r.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db != nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func isPrivate(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
