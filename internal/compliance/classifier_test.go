package compliance

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   Verdict
	}{
		{"full gear", []string{"person", "helmet", "vest"}, VerdictPass},
		{"missing vest", []string{"person", "helmet"}, VerdictRejected},
		{"missing helmet", []string{"person", "vest"}, VerdictRejected},
		{"person alone", []string{"person"}, VerdictRejected},
		{"gear without person", []string{"helmet", "vest"}, VerdictUnknown},
		{"no detections", []string{}, VerdictUnknown},
		{"nil labels", nil, VerdictUnknown},
		{"unrelated objects", []string{"dog", "car"}, VerdictUnknown},
		{"full gear with extras", []string{"dog", "person", "helmet", "vest", "car"}, VerdictPass},
		{"duplicate labels", []string{"person", "person", "helmet"}, VerdictRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.labels); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.labels, got, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	labels := []string{"person", "vest"}

	first := Classify(labels)
	for i := 0; i < 10; i++ {
		if got := Classify(labels); got != first {
			t.Fatalf("Classify is not deterministic: got %v then %v", first, got)
		}
	}
}
