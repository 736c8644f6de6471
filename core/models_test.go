package core

import (
	"testing"
)

func TestListing_EmbedText(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		want    string
	}{
		{
			name: "driver title preferred",
			listing: Listing{
				Name:        "Apartament 2 camere",
				DriverTitle: "Apartament 2 camere, zona Aviatiei",
				Description: "Etaj 3, renovat recent.",
			},
			want: "Apartament 2 camere, zona Aviatiei\n\nEtaj 3, renovat recent.",
		},
		{
			name: "falls back to name",
			listing: Listing{
				Name:        "Garsoniera centrala",
				Description: "Mobilata complet.",
			},
			want: "Garsoniera centrala\n\nMobilata complet.",
		},
		{
			name: "description only",
			listing: Listing{
				Description: "Teren intravilan 500mp.",
			},
			want: "Teren intravilan 500mp.",
		},
		{
			name: "title only",
			listing: Listing{
				DriverTitle: "Casa de vanzare",
			},
			want: "Casa de vanzare",
		},
		{
			name:    "no text at all",
			listing: Listing{},
			want:    "",
		},
		{
			name: "whitespace-only fields",
			listing: Listing{
				Name:        "   ",
				Description: "\n\t",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.listing.EmbedText()
			if got != tt.want {
				t.Errorf("Listing.EmbedText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmbeddingStatus_Valid(t *testing.T) {
	tests := []struct {
		status EmbeddingStatus
		want   bool
	}{
		{StatusSuccess, true},
		{StatusFailed, true},
		{StatusFatal, true},
		{EmbeddingStatus(""), false},
		{EmbeddingStatus("pending"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("EmbeddingStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestEmbeddingStatus_Terminal(t *testing.T) {
	if !StatusFatal.Terminal() {
		t.Error("StatusFatal.Terminal() = false, want true")
	}
	if StatusFailed.Terminal() {
		t.Error("StatusFailed.Terminal() = true, want false")
	}
	if StatusSuccess.Terminal() {
		t.Error("StatusSuccess.Terminal() = true, want false")
	}
}
