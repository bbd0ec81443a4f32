// Package address turns spoken address fragments into a verified
// mailing address. Callers rarely deliver an address in one breath,
// so fragments are accumulated across turns until the text looks
// complete, then extracted and confirmed against an authoritative
// street-address lookup.
package address

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// ErrNotFound is returned when the authoritative lookup has no match
// for the extracted address.
var ErrNotFound = errors.New("address: address not found")

// Address is a fully resolved US mailing address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Parsed is the extraction collaborator's view of a spoken address:
// whatever fields the caller actually said, plus an explicit list of
// the fields the extractor could not determine.
type Parsed struct {
	Address
	Missing []string `json:"missing_fields"`
}

// Verified is an authoritative lookup result.
type Verified struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Extractor pulls structured address fields out of free text.
type Extractor interface {
	ExtractAddress(ctx context.Context, raw string) (Parsed, error)
}

// Verifier confirms an address exists, keyed by whatever fields were
// extracted, and returns the canonical form. A nil result with a nil
// error means no matching address exists.
type Verifier interface {
	Verify(ctx context.Context, street, city, state, zip string) (*Verified, error)
}

// streetSuffixes are the tokens that mark the end of a street line.
var streetSuffixes = map[string]bool{
	"street": true, "st": true,
	"avenue": true, "ave": true,
	"road": true, "rd": true,
	"drive": true, "dr": true,
	"lane": true, "ln": true,
	"court": true, "ct": true,
	"way": true,
	"boulevard": true, "blvd": true,
	"place": true, "pl": true,
}

// minAddressWords is the floor below which a buffer cannot plausibly
// hold street, city, and state.
const minAddressWords = 4

// Accumulate appends a fragment to the running buffer and reports
// whether the buffer now looks like a complete address: at least one
// digit, a street-suffix token, and minAddressWords words.
func Accumulate(buffer, fragment string) (string, bool) {
	fragment = strings.TrimSpace(fragment)
	if fragment != "" {
		if buffer == "" {
			buffer = fragment
		} else {
			buffer = buffer + " " + fragment
		}
	}
	return buffer, looksComplete(buffer)
}

func looksComplete(buffer string) bool {
	words := strings.Fields(buffer)
	if len(words) < minAddressWords {
		return false
	}

	hasDigit := false
	for _, r := range buffer {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return false
	}

	for _, w := range words {
		if streetSuffixes[strings.ToLower(strings.Trim(w, ".,"))] {
			return true
		}
	}
	return false
}
