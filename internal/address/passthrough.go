package address

import "context"

// PassthroughVerifier accepts whatever was extracted without an
// authoritative lookup. It keeps development environments working
// when no verification credentials are configured; a full street
// line is still required.
type PassthroughVerifier struct{}

func (PassthroughVerifier) Verify(_ context.Context, street, city, state, zip string) (*Verified, error) {
	if street == "" {
		return nil, nil
	}
	return &Verified{Street: street, City: city, State: state, Zip: zip}, nil
}

var _ Verifier = PassthroughVerifier{}
