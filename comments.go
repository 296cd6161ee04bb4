package spacetravelling

// UtterancesScript is the client script of the utterances comment widget.
const UtterancesScript = "https://utteranc.es/client.js"

// CommentsConfig configures the utterances widget under each post. An empty
// Repo disables it.
type CommentsConfig struct {
	Repo      string `mapstructure:"repo"`       // GitHub "owner/name" holding the issues
	IssueTerm string `mapstructure:"issue_term"` // default "pathname"
	Theme     string `mapstructure:"theme"`      // default "github-dark"
	Label     string `mapstructure:"label"`
}

func (c *CommentsConfig) setDefaults() {
	if c.IssueTerm == "" {
		c.IssueTerm = "pathname"
	}
	if c.Theme == "" {
		c.Theme = "github-dark"
	}
}

// Enabled reports whether the widget should be mounted.
func (c CommentsConfig) Enabled() bool {
	return c.Repo != ""
}

// Attr is one attribute of the injected widget script.
type Attr struct {
	Name  string
	Value string
}

// ScriptAttrs returns the attributes the mount script copies onto the
// utterances <script> element, in a stable order.
func (c CommentsConfig) ScriptAttrs() []Attr {
	attrs := []Attr{
		{Name: "src", Value: UtterancesScript},
		{Name: "repo", Value: c.Repo},
		{Name: "issue-term", Value: c.IssueTerm},
		{Name: "theme", Value: c.Theme},
		{Name: "crossorigin", Value: "anonymous"},
	}
	if c.Label != "" {
		attrs = append(attrs, Attr{Name: "label", Value: c.Label})
	}
	return attrs
}
