package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/intakehq/voice-intake/pkg/logging"
)

// Resolver normalizes accumulated address text via extraction and
// confirms it against the authoritative lookup.
//
// The resolver never invents address components. Only the lookup may
// supply a missing field, and only for fields the extractor
// explicitly marked missing; it never overrides an extracted value.
type Resolver struct {
	extractor Extractor
	verifier  Verifier
	logger    *logging.Logger
}

// NewResolver constructs a resolver from its collaborators.
func NewResolver(extractor Extractor, verifier Verifier, logger *logging.Logger) *Resolver {
	if extractor == nil {
		panic("address: extractor required")
	}
	if verifier == nil {
		panic("address: verifier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{extractor: extractor, verifier: verifier, logger: logger}
}

// Resolve extracts the address, verifies it exists, and backfills any
// fields the extractor could not determine. Returns ErrNotFound when
// the lookup has no matching address.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Address, error) {
	parsed, err := r.extractor.ExtractAddress(ctx, raw)
	if err != nil {
		return Address{}, fmt.Errorf("address: extraction failed: %w", err)
	}

	verified, err := r.verifier.Verify(ctx, parsed.Street, parsed.City, parsed.State, parsed.Zip)
	if err != nil {
		return Address{}, fmt.Errorf("address: verification failed: %w", err)
	}
	if verified == nil {
		r.logger.Info("address lookup found no match", "street", parsed.Street, "city", parsed.City)
		return Address{}, ErrNotFound
	}

	out := parsed.Address
	for _, field := range parsed.Missing {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "street":
			out.Street = verified.Street
		case "city":
			out.City = verified.City
		case "state":
			out.State = verified.State
		case "zip", "zipcode", "zip_code":
			out.Zip = verified.Zip
		}
	}
	return out, nil
}
