// Package gitinfo reads release information from a local git checkout, for
// reproducing a tagged CI job outside the CI service.
package gitinfo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// HeadTag returns a tag pointing at the HEAD commit of the repository
// containing dir. Annotated tags are peeled to their commit. When several
// tags match, the lexically greatest name wins.
func HeadTag(dir string) (name string, ok bool, err error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", false, fmt.Errorf("resolve HEAD: %w", err)
	}

	tags, err := repo.Tags()
	if err != nil {
		return "", false, err
	}
	var names []string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		tag, err := repo.TagObject(target)
		switch {
		case err == nil:
			commit, err := tag.Commit()
			if err != nil {
				// Tags of trees or blobs never match HEAD.
				return nil
			}
			target = commit.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}
		if target == head.Hash() {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("list tags: %w", err)
	}
	if len(names) == 0 {
		return "", false, nil
	}
	sort.Strings(names)
	return names[len(names)-1], true, nil
}
