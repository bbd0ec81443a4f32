package address

import "testing"

// Fragments delivered across turns accumulate and only complete once
// the buffer holds a digit, a street-suffix token, and enough words.
func TestAccumulateFragmentSequence(t *testing.T) {
	buffer, complete := Accumulate("", "my address is twelve")
	if complete {
		t.Fatalf("first fragment should be partial: %q", buffer)
	}

	buffer, complete = Accumulate(buffer, "fourty five hayes street")
	if complete {
		// "street" is present but no digit has been spoken yet.
		t.Fatalf("second fragment should still be partial: %q", buffer)
	}

	buffer, complete = Accumulate(buffer, "california 94117")
	if !complete {
		t.Fatalf("third fragment should complete the address: %q", buffer)
	}
	want := "my address is twelve fourty five hayes street california 94117"
	if buffer != want {
		t.Errorf("buffer: got %q, want %q", buffer, want)
	}
}

func TestAccumulateSingleUtterance(t *testing.T) {
	_, complete := Accumulate("", "1245 hayes street san francisco california 94117")
	if !complete {
		t.Error("full address in one utterance should be complete")
	}
}

func TestAccumulateRules(t *testing.T) {
	tests := []struct {
		name     string
		buffer   string
		complete bool
	}{
		{"too few words", "1245 hayes st", false},
		{"no street suffix", "1245 hayes san francisco 94117", false},
		{"no digit", "hayes street san francisco california", false},
		{"suffix with trailing comma", "1245 hayes street, san francisco", true},
		{"abbreviated suffix", "87 hemlock rd manhasset ny 11030", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, complete := Accumulate("", tt.buffer); complete != tt.complete {
				t.Errorf("Accumulate(%q): complete=%v, want %v", tt.buffer, complete, tt.complete)
			}
		})
	}
}

func TestAccumulateIgnoresBlankFragments(t *testing.T) {
	buffer, complete := Accumulate("1245 hayes", "   ")
	if buffer != "1245 hayes" || complete {
		t.Errorf("blank fragment mutated buffer: %q complete=%v", buffer, complete)
	}
}
