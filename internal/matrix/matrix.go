// Package matrix resolves the CI job's build configuration from the
// environment.
package matrix

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/mod/semver"
)

var (
	ErrUnsupportedBuildType = errors.New("unsupported build type")
	ErrMissingVariable      = errors.New("missing required variable")
	ErrInvalidVariable      = errors.New("invalid variable")
)

// Configuration keys.
const (
	KeyBuildType    = "build_type"
	KeyRepoTag      = "repo_tag"
	KeyRepoTagName  = "repo_tag_name"
	KeyTestNSplit   = "test_nsplit"
	KeySplitTestNum = "split_test_num"
	KeyRoot         = "root"
)

// EnvNames maps each key to the environment variable it is read from.
var EnvNames = map[string]string{
	KeyBuildType:    "BUILD_TYPE",
	KeyRepoTag:      "APPVEYOR_REPO_TAG",
	KeyRepoTagName:  "APPVEYOR_REPO_TAG_NAME",
	KeyTestNSplit:   "TEST_NSPLIT",
	KeySplitTestNum: "SPLIT_TEST_NUM",
	KeyRoot:         "PIRANHA_CI_ROOT",
}

// NewViper returns a viper instance with the CI variables bound.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, name := range EnvNames {
		_ = v.BindEnv(key, name)
	}
	v.SetDefault(KeyRoot, DefaultRoot)
	return v
}

var releaseTagPattern = regexp.MustCompile(`^v[0-9]+\.[0-9]+`)

// IsReleaseTag reports whether a job was triggered by a version tag such as
// v1.2.0 or v2.1-beta.
func IsReleaseTag(tagFlag, tagName string) bool {
	return tagFlag == "true" && releaseTagPattern.MatchString(tagName)
}

// Tag describes the source-control tag a job runs against.
type Tag struct {
	Name      string
	IsRelease bool
}

// Semver is the canonical semantic version of the tag, or "" when the tag
// is not valid semver.
func (t Tag) Semver() string { return semver.Canonical(t.Name) }

// Prerelease reports a semver prerelease suffix such as "-rc.1".
func (t Tag) Prerelease() string { return semver.Prerelease(t.Name) }

// Config is the immutable description of one CI job.
type Config struct {
	BuildType BuildType
	Tag       Tag
	Layout    Layout
}

// Binding returns the binding build type, if the job is one.
func (c *Config) Binding() (Binding, bool) {
	b, ok := c.BuildType.(Binding)
	return b, ok
}

// Load validates the variables held by v and builds a Config. It touches
// nothing outside v.
func Load(v *viper.Viper) (*Config, error) {
	selector, err := required(v, KeyBuildType)
	if err != nil {
		return nil, err
	}
	layout := Layout{Root: v.GetString(KeyRoot)}
	if layout.Root == "" {
		layout.Root = DefaultRoot
	}

	bt, err := ParseBuildType(selector, layout)
	if err != nil {
		return nil, err
	}
	if n, ok := bt.(Native); ok {
		split, err := loadSplit(v)
		if err != nil {
			return nil, err
		}
		n.Split = split
		bt = n
	}

	tagFlag, err := required(v, KeyRepoTag)
	if err != nil {
		return nil, err
	}
	var tag Tag
	if tagFlag == "true" {
		if tag.Name, err = required(v, KeyRepoTagName); err != nil {
			return nil, err
		}
		tag.IsRelease = IsReleaseTag(tagFlag, tag.Name)
	}

	return &Config{BuildType: bt, Tag: tag, Layout: layout}, nil
}

func loadSplit(v *viper.Viper) (TestSplit, error) {
	count, err := requiredInt(v, KeyTestNSplit)
	if err != nil {
		return TestSplit{}, err
	}
	index, err := requiredInt(v, KeySplitTestNum)
	if err != nil {
		return TestSplit{}, err
	}
	if count < 1 {
		return TestSplit{}, fmt.Errorf("%w: %s=%d, want at least 1", ErrInvalidVariable, EnvNames[KeyTestNSplit], count)
	}
	if index < 0 || index >= count {
		return TestSplit{}, fmt.Errorf("%w: %s=%d, want 0..%d", ErrInvalidVariable, EnvNames[KeySplitTestNum], index, count-1)
	}
	return TestSplit{Count: count, Index: index}, nil
}

// required returns the raw value of key. Selectors and the tag flag are
// compared literally, so surrounding whitespace is kept and makes them fail
// to match; a blank value counts as missing.
func required(v *viper.Viper, key string) (string, error) {
	s := v.GetString(key)
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, EnvNames[key])
	}
	return s, nil
}

func requiredInt(v *viper.Viper, key string) (int, error) {
	s, err := required(v, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidVariable, EnvNames[key], s)
	}
	return n, nil
}
