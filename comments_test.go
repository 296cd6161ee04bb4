package spacetravelling

import "testing"

func TestCommentsDefaults(t *testing.T) {
	var c CommentsConfig
	c.setDefaults()
	if c.IssueTerm != "pathname" || c.Theme != "github-dark" {
		t.Errorf("defaults = %+v", c)
	}
	if c.Enabled() {
		t.Error("widget without repo should be disabled")
	}
}

func TestCommentsScriptAttrs(t *testing.T) {
	tests := []struct {
		name  string
		cfg   CommentsConfig
		want  int
		label bool
	}{
		{"without label", CommentsConfig{Repo: "owner/blog-comments", IssueTerm: "pathname", Theme: "github-dark"}, 5, false},
		{"with label", CommentsConfig{Repo: "owner/blog-comments", IssueTerm: "title", Theme: "github-light", Label: "comment"}, 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := tt.cfg.ScriptAttrs()
			if len(attrs) != tt.want {
				t.Fatalf("got %d attrs, want %d: %+v", len(attrs), tt.want, attrs)
			}
			if attrs[0].Name != "src" || attrs[0].Value != UtterancesScript {
				t.Errorf("first attr = %+v", attrs[0])
			}
			got := map[string]string{}
			for _, a := range attrs {
				got[a.Name] = a.Value
			}
			if got["repo"] != tt.cfg.Repo || got["issue-term"] != tt.cfg.IssueTerm || got["theme"] != tt.cfg.Theme {
				t.Errorf("attrs = %v", got)
			}
			if _, ok := got["label"]; ok != tt.label {
				t.Errorf("label present = %v, want %v", ok, tt.label)
			}
		})
	}
}
