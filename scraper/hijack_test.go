package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestBlockedResourceSet(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  []proto.NetworkResourceType
	}{
		{"empty", nil, nil},
		{
			"single",
			[]string{"Image"},
			[]proto.NetworkResourceType{proto.NetworkResourceTypeImage},
		},
		{
			"all supported",
			[]string{"Image", "Stylesheet", "Font", "Media", "Script"},
			[]proto.NetworkResourceType{
				proto.NetworkResourceTypeImage,
				proto.NetworkResourceTypeStylesheet,
				proto.NetworkResourceTypeFont,
				proto.NetworkResourceTypeMedia,
				proto.NetworkResourceTypeScript,
			},
		},
		{
			"unknown names ignored",
			[]string{"Image", "XHR", "bogus"},
			[]proto.NetworkResourceType{proto.NetworkResourceTypeImage},
		},
		{
			"duplicates collapse",
			[]string{"Script", "Script"},
			[]proto.NetworkResourceType{proto.NetworkResourceTypeScript},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blockedResourceSet(tt.types)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d resource types, want %d", len(got), len(tt.want))
			}
			for _, rt := range tt.want {
				if _, ok := got[rt]; !ok {
					t.Errorf("missing resource type %v", rt)
				}
			}
		})
	}
}

func TestSetupHijack_NothingToBlock(t *testing.T) {
	// With nothing to block no router may be mounted; the page is never
	// touched, so a nil page is safe here.
	if router := setupHijack(nil, nil); router != nil {
		t.Error("expected no router for an empty block list")
	}
	if router := setupHijack(nil, []string{"WebSocket"}); router != nil {
		t.Error("expected no router when no names resolve to a resource type")
	}
}
