// Package shortcode resolves the [quiz slug="..."] placeholder embedding
// hosts put in their content.
package shortcode

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const Tag = "quiz"

// MountClass marks the element a front end attaches an engine run to.
const MountClass = "quiz-funnel-embed"

var (
	tokenPattern = regexp.MustCompile(`\[` + Tag + `(\s[^\[\]]*)?\]`)
	attrPattern  = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'\]]+))`)
)

// Shortcode is one placeholder found in host content.
type Shortcode struct {
	Raw   string
	Start int
	End   int
	Slug  string
	Attrs map[string]string
}

// Find returns the placeholders in content, in order of appearance.
func Find(content string) []Shortcode {
	locs := tokenPattern.FindAllStringSubmatchIndex(content, -1)
	out := make([]Shortcode, 0, len(locs))
	for _, loc := range locs {
		sc := Shortcode{
			Raw:   content[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
			Attrs: map[string]string{},
		}
		if loc[2] >= 0 {
			sc.Attrs = parseAttrs(content[loc[2]:loc[3]])
		}
		sc.Slug = strings.TrimSpace(sc.Attrs["slug"])
		out = append(out, sc)
	}
	return out
}

func parseAttrs(s string) map[string]string {
	attrs := map[string]string{}
	for _, m := range attrPattern.FindAllStringSubmatchIndex(s, -1) {
		key := strings.ToLower(s[m[2]:m[3]])
		for g := 4; g < len(m); g += 2 {
			if m[g] >= 0 {
				attrs[key] = s[m[g]:m[g+1]]
				break
			}
		}
	}
	return attrs
}

// MountPoint returns the element a front end instantiates one run on.
func MountPoint(slug string, n int) string {
	return fmt.Sprintf(`<div class="%s" id="%s-%d" data-quiz-slug="%s"></div>`,
		MountClass, MountClass, n, html.EscapeString(slug))
}

// MissingSlug replaces a placeholder without a slug attribute.
const MissingSlug = `<!-- quiz-funnel: slug attribute is required -->`

// Render replaces every placeholder with a mount point and returns the
// slugs in order of appearance, repeats included.
func Render(content string) (string, []string) {
	codes := Find(content)
	if len(codes) == 0 {
		return content, []string{}
	}
	var b strings.Builder
	slugs := make([]string, 0, len(codes))
	last := 0
	for i, sc := range codes {
		b.WriteString(content[last:sc.Start])
		if sc.Slug == "" {
			b.WriteString(MissingSlug)
		} else {
			b.WriteString(MountPoint(sc.Slug, i+1))
			slugs = append(slugs, sc.Slug)
		}
		last = sc.End
	}
	b.WriteString(content[last:])
	return b.String(), slugs
}

// Build returns the placeholder an author pastes for slug.
func Build(slug string) string {
	return fmt.Sprintf(`[%s slug="%s"]`, Tag, slug)
}
