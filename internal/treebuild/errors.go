package treebuild

import "github.com/cockroachdb/errors"

var (
	// ErrSlugCollision is returned when a slug key would be issued twice in
	// one build.
	ErrSlugCollision = errors.New("duplicate slug suffix")

	// ErrMissingDocNo is returned when sibling ordering has to compare a
	// record that has no docNo.
	ErrMissingDocNo = errors.New("no doc no strings found")
)

func slugCollision(id, suffix string) error {
	err := errors.Newf("duplicate slug suffix detected for %s|%s", id, suffix)
	err = errors.WithHint(err, "consider increasing AncestorSlugChars")
	return errors.Mark(err, ErrSlugCollision)
}

func missingDocNo(id string) error {
	err := errors.WithDetailf(ErrMissingDocNo, "record: %q", id)
	return errors.Wrapf(err, "sort siblings")
}
