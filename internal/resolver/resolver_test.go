package resolver

import "testing"

func TestResolveIngestTargetURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{
			name: "tiktok named media with tracking params",
			raw:  "https://www.tiktok.com/@user/video/123?lang=en&is_from_webapp=1",
			want: "https://www.tiktok.com/@user/video/123",
		},
		{
			name: "tiktok photo uppercase type",
			raw:  "https://www.tiktok.com/@creator/PHOTO/987654",
			want: "https://www.tiktok.com/@creator/photo/987654",
		},
		{
			name: "tiktok generic fallback without handle",
			raw:  "https://m.tiktok.com/v/video/555?ref=share",
			want: "https://www.tiktok.com/video/555",
		},
		{
			name: "tiktok non-media path",
			raw:  "https://www.tiktok.com/@user",
			want: "",
		},
		{
			name: "youtube watch with tracking params",
			raw:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&feature=share",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "youtube mobile host",
			raw:  "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "youtube shorts",
			raw:  "https://www.youtube.com/shorts/abcDEF12345?feature=share",
			want: "https://www.youtube.com/shorts/abcDEF12345",
		},
		{
			name: "youtu.be short link",
			raw:  "https://youtu.be/dQw4w9WgXcQ?si=tracking",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "youtube watch without video id",
			raw:  "https://www.youtube.com/watch",
			want: "",
		},
		{
			name: "twitter status",
			raw:  "https://twitter.com/livechat/status/123456789?s=20",
			want: "https://x.com/livechat/status/123456789",
		},
		{
			name: "x.com status with fragment",
			raw:  "https://x.com/livechat/status/123456789#m",
			want: "https://x.com/livechat/status/123456789",
		},
		{
			name: "twitter legacy statuses path",
			raw:  "https://twitter.com/livechat/statuses/42",
			want: "https://x.com/livechat/status/42",
		},
		{
			name: "twitter profile is not a post",
			raw:  "https://x.com/livechat",
			want: "",
		},
		{
			name: "relative path resolved against base",
			raw:  "/@user/video/777",
			base: "https://www.tiktok.com/foryou",
			want: "https://www.tiktok.com/@user/video/777",
		},
		{
			name: "unsupported origin",
			raw:  "https://example.com/@user/video/123",
			want: "",
		},
		{
			name: "unparseable input",
			raw:  "http://%zz",
			want: "",
		},
		{
			name: "relative without base",
			raw:  "/video/123",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveIngestTargetURL(tt.raw, tt.base)
			if got != tt.want {
				t.Errorf("ResolveIngestTargetURL(%q, %q) = %q, want %q", tt.raw, tt.base, got, tt.want)
			}
		})
	}
}

func TestResolveIngestTargetURLIdempotent(t *testing.T) {
	canonical := []string{
		"https://www.tiktok.com/@user/video/123",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abcDEF12345",
		"https://x.com/livechat/status/123456789",
	}
	for _, u := range canonical {
		if got := ResolveIngestTargetURL(u, ""); got != u {
			t.Errorf("re-resolving %q changed it to %q", u, got)
		}
	}
}

func TestResolveFromCandidates(t *testing.T) {
	tests := []struct {
		name string
		c    Candidates
		want string
	}{
		{
			name: "link wins over page",
			c: Candidates{
				LinkURL: "https://www.tiktok.com/@a/video/1",
				PageURL: "https://www.tiktok.com/@b/video/2",
			},
			want: "https://www.tiktok.com/@a/video/1",
		},
		{
			name: "unresolvable link falls through to src",
			c: Candidates{
				LinkURL: "https://example.com/x",
				SrcURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			},
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "tab url as last resort",
			c: Candidates{
				LinkURL: "https://example.com/a",
				SrcURL:  "https://example.com/b",
				PageURL: "https://example.com/c",
				TabURL:  "https://x.com/user/status/9",
			},
			want: "https://x.com/user/status/9",
		},
		{
			name: "nothing resolves",
			c:    Candidates{PageURL: "https://example.com/"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFromCandidates(tt.c); got != tt.want {
				t.Errorf("ResolveFromCandidates() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeAPIURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "https://bot.example.com", want: "https://bot.example.com"},
		{raw: "  https://bot.example.com/  ", want: "https://bot.example.com"},
		{raw: "https://bot.example.com/api/?x=1#frag", want: "https://bot.example.com/api"},
		{raw: "http://localhost:8080/", want: "http://localhost:8080"},
		{raw: "ftp://bot.example.com", wantErr: true},
		{raw: "not a url", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NormalizeAPIURL(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeAPIURL(%q) expected error, got %q", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeAPIURL(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeAPIURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestOrigin(t *testing.T) {
	if got := Origin("https://bot.example.com:8443/api"); got != "https://bot.example.com:8443" {
		t.Errorf("Origin() = %q", got)
	}
	if got := Origin("garbage"); got != "" {
		t.Errorf("Origin(garbage) = %q, want empty", got)
	}
}
