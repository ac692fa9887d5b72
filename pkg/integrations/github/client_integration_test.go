//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/curator/pkg/integrations"
)

func TestFetch_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set, skipping integration test")
	}

	client := NewClient(token, integrations.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"golang/go", "golang/go", false},
		{"nonexistent", "nonexistent-owner-12345/nonexistent-repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := client.Fetch(ctx, tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fetch(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if md.RepositoryURL == "" {
					t.Error("RepositoryURL should not be empty")
				}
				if len(md.Languages) == 0 {
					t.Error("Languages should not be empty")
				}
			}
		})
	}
}
