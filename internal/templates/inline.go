package templates

import (
	"context"
	"fmt"
	"path"
	"regexp"

	"entityemailer/internal/types"
)

// fragmentPattern matches an inclusion marker such as [[20px.html]].
var fragmentPattern = regexp.MustCompile(`\[\[([^\[\]]+\.html)\]\]`)

// fragmentDir holds the shared fragments markers refer to.
const fragmentDir = "common"

// maxInlineDepth bounds nested fragment expansion.
const maxInlineDepth = 5

// Inline replaces every [[name.html]] marker in tmpl with the content of
// common/name.html, repeating until no marker remains. Template actions
// ({{ ... }}) are left untouched. The result contains no markers, so inlining
// it again returns it unchanged.
func Inline(ctx context.Context, store Store, tmpl string) (string, error) {
	cache := make(map[string]string)
	for depth := 0; fragmentPattern.MatchString(tmpl); depth++ {
		if depth == maxInlineDepth {
			return "", types.NewAppError(types.ErrCodeInternalTemplate,
				fmt.Sprintf("fragments nested deeper than %d levels", maxInlineDepth), nil)
		}

		var readErr error
		tmpl = fragmentPattern.ReplaceAllStringFunc(tmpl, func(marker string) string {
			if readErr != nil {
				return marker
			}
			name := path.Join(fragmentDir, fragmentPattern.FindStringSubmatch(marker)[1])
			if content, ok := cache[name]; ok {
				return content
			}
			data, err := store.Read(ctx, name)
			if err != nil {
				readErr = storeError(name, err)
				return marker
			}
			cache[name] = string(data)
			return string(data)
		})
		if readErr != nil {
			return "", readErr
		}
	}
	return tmpl, nil
}
