package core

import (
	"errors"
	"testing"
)

func TestValidateListing(t *testing.T) {
	tests := []struct {
		name    string
		listing *Listing
		wantErr error
	}{
		{
			name: "valid listing",
			listing: &Listing{
				Id:          "abc123",
				Name:        "Apartament",
				Description: "Doua camere.",
				Status:      StatusFailed,
			},
			wantErr: nil,
		},
		{
			name: "valid listing without status",
			listing: &Listing{
				Id: "abc123",
			},
			wantErr: nil,
		},
		{
			name:    "nil listing",
			listing: nil,
			wantErr: ErrInvalidListing,
		},
		{
			name: "empty id",
			listing: &Listing{
				Name: "Apartament",
			},
			wantErr: ErrEmptyId,
		},
		{
			name: "unknown status",
			listing: &Listing{
				Id:     "abc123",
				Status: EmbeddingStatus("queued"),
			},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListing(tt.listing)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateListing() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateListing() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAgent(t *testing.T) {
	tests := []struct {
		name    string
		agent   *Agent
		wantErr error
	}{
		{
			name: "valid agent",
			agent: &Agent{
				Phone:      "0722123456",
				Type:       "agency",
				AgencyName: "Imobiliare SRL",
			},
			wantErr: nil,
		},
		{
			name:    "nil agent",
			agent:   nil,
			wantErr: ErrInvalidAgent,
		},
		{
			name:    "empty phone",
			agent:   &Agent{Type: "private"},
			wantErr: ErrEmptyPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAgent(tt.agent)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAgent() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAgent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
