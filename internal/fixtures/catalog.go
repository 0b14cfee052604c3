// Package fixtures holds the labeled sample inputs used for regression
// testing against the detection service. The catalog is an immutable value;
// reloading swaps the whole catalog rather than mutating it in place.
package fixtures

// Source names which detection signal is expected to decide a case.
type Source string

const (
	SourceWhitelist Source = "whitelist"
	SourceBlacklist Source = "blacklist"
	SourceRegex     Source = "regex"
	SourceML        Source = "ML"
	SourceMixed     Source = "mixed"
)

// Expectation is the labeled outcome for one sample input.
type Expectation struct {
	Flagged bool   `yaml:"flagged"`
	Source  Source `yaml:"source"`
}

// Case pairs a raw input with its expected outcome.
type Case struct {
	Input    string      `yaml:"url"`
	Expected Expectation `yaml:"expected"`
}

// Category groups cases under a display label. The label carries no semantics.
type Category struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// Catalog is the ordered, categorized collection of test cases.
type Catalog struct {
	Categories []Category
}

// Flatten returns the full ordered input list: category order, then case
// order within each category. This is the exact sequence a batch run submits.
func (c *Catalog) Flatten() []string {
	var inputs []string
	for _, cat := range c.Categories {
		for _, tc := range cat.Cases {
			inputs = append(inputs, tc.Input)
		}
	}
	return inputs
}

// Lookup finds the expectation for an input by exact, case-sensitive string
// match. For duplicated inputs the first occurrence wins, so every verdict
// for that input correlates to the same expectation.
func (c *Catalog) Lookup(input string) (Expectation, bool) {
	for _, cat := range c.Categories {
		for _, tc := range cat.Cases {
			if tc.Input == input {
				return tc.Expected, true
			}
		}
	}
	return Expectation{}, false
}

// Len returns the total number of cases.
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Cases)
	}
	return n
}

// Default returns the built-in sample catalog: the labeled URL set the
// detection service is expected to handle, grouped by the signal that should
// decide each one.
func Default() *Catalog {
	return &Catalog{Categories: []Category{
		{
			Name: "whitelist",
			Cases: []Case{
				{Input: "http://example.com/", Expected: Expectation{Flagged: false, Source: SourceWhitelist}},
				{Input: "https://www.google.com/", Expected: Expectation{Flagged: false, Source: SourceWhitelist}},
				{Input: "https://docs.python.org/3/", Expected: Expectation{Flagged: false, Source: SourceWhitelist}},
				{Input: "https://github.com/", Expected: Expectation{Flagged: false, Source: SourceWhitelist}},
				{Input: "https://stackoverflow.com/questions/12345", Expected: Expectation{Flagged: false, Source: SourceWhitelist}},
			},
		},
		{
			Name: "blacklist",
			Cases: []Case{
				{Input: "https://malicious-site.com/evil-page", Expected: Expectation{Flagged: true, Source: SourceBlacklist}},
				{Input: "https://bad-example.org/attack-here", Expected: Expectation{Flagged: true, Source: SourceBlacklist}},
				{Input: "https://untrusted-domain.net/malware", Expected: Expectation{Flagged: true, Source: SourceBlacklist}},
				{Input: "https://hacker.com/phishing-page", Expected: Expectation{Flagged: true, Source: SourceBlacklist}},
				{Input: "http://phishing-test.com/login.php", Expected: Expectation{Flagged: true, Source: SourceBlacklist}},
			},
		},
		{
			Name: "regex attacks",
			Cases: []Case{
				{Input: "http://example.com/page?id=1 OR 1=1", Expected: Expectation{Flagged: true, Source: SourceRegex}},
				{Input: "https://test.com/login?username=admin'--&password=test", Expected: Expectation{Flagged: true, Source: SourceRegex}},
				{Input: "<script>alert(1)</script>", Expected: Expectation{Flagged: true, Source: SourceRegex}},
				{Input: "../etc/passwd", Expected: Expectation{Flagged: true, Source: SourceRegex}},
				{Input: `<a href="javascript:alert('xss')">Click me</a>`, Expected: Expectation{Flagged: true, Source: SourceRegex}},
			},
		},
		{
			Name: "ml tests",
			Cases: []Case{
				{Input: "https://unknown-malicious-domain.org/bad-page", Expected: Expectation{Flagged: true, Source: SourceML}},
				{Input: "https://new-phishing-site.com/steal-info", Expected: Expectation{Flagged: true, Source: SourceML}},
				{Input: "https://safe-site.org/home", Expected: Expectation{Flagged: false, Source: SourceML}},
			},
		},
		{
			Name: "edge cases",
			Cases: []Case{
				{Input: "https://shop.example.com/product/abcd?color=red", Expected: Expectation{Flagged: false, Source: SourceMixed}},
				{Input: "https://example.com/?q=<script>alert(1)</script>", Expected: Expectation{Flagged: true, Source: SourceRegex}},
				// Duplicate of a blacklist URL on purpose: the live service may
				// decide it via ML before the blacklist is consulted.
				{Input: "https://malicious-site.com/evil-page", Expected: Expectation{Flagged: true, Source: SourceML}},
			},
		},
	}}
}
