package address

import (
	"context"
	"errors"
	"testing"
)

type fakeExtractor struct {
	parsed Parsed
	err    error
}

func (f *fakeExtractor) ExtractAddress(ctx context.Context, raw string) (Parsed, error) {
	return f.parsed, f.err
}

type fakeVerifier struct {
	verified *Verified
	err      error
	gotZip   string
}

func (f *fakeVerifier) Verify(ctx context.Context, street, city, state, zip string) (*Verified, error) {
	f.gotZip = zip
	return f.verified, f.err
}

func TestResolveBackfillsOnlyMissingFields(t *testing.T) {
	ext := &fakeExtractor{parsed: Parsed{
		Address: Address{Street: "1245 Hayes Street", State: "CA", Zip: "94117"},
		Missing: []string{"city"},
	}}
	ver := &fakeVerifier{verified: &Verified{
		Street: "1245 Hayes St",
		City:   "San Francisco",
		State:  "XX", // must not override the extracted state
		Zip:    "00000",
	}}

	got, err := NewResolver(ext, ver, nil).Resolve(context.Background(), "raw text")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.City != "San Francisco" {
		t.Errorf("missing city not backfilled: %+v", got)
	}
	if got.Street != "1245 Hayes Street" || got.State != "CA" || got.Zip != "94117" {
		t.Errorf("extracted fields overridden by lookup: %+v", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	ext := &fakeExtractor{parsed: Parsed{Address: Address{Street: "1 Nowhere Rd"}}}
	ver := &fakeVerifier{verified: nil}

	_, err := NewResolver(ext, ver, nil).Resolve(context.Background(), "raw")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestResolveExtractionFailure(t *testing.T) {
	wrapped := errors.New("model returned garbage")
	ext := &fakeExtractor{err: wrapped}

	_, err := NewResolver(ext, &fakeVerifier{}, nil).Resolve(context.Background(), "raw")
	if !errors.Is(err, wrapped) {
		t.Errorf("extraction error not propagated: %v", err)
	}
}

func TestResolveVerifierFailure(t *testing.T) {
	ext := &fakeExtractor{parsed: Parsed{Address: Address{Street: "1245 Hayes Street"}}}
	boom := errors.New("lookup unreachable")
	ver := &fakeVerifier{err: boom}

	_, err := NewResolver(ext, ver, nil).Resolve(context.Background(), "raw")
	if !errors.Is(err, boom) {
		t.Errorf("verifier error not propagated: %v", err)
	}
}

func TestResolvePassesZipToVerifier(t *testing.T) {
	ext := &fakeExtractor{parsed: Parsed{Address: Address{Street: "87 Hemlock Rd", Zip: "11030"}}}
	ver := &fakeVerifier{verified: &Verified{}}

	if _, err := NewResolver(ext, ver, nil).Resolve(context.Background(), "raw"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ver.gotZip != "11030" {
		t.Errorf("zip not forwarded to verifier: %q", ver.gotZip)
	}
}
