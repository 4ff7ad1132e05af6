package mutation

import (
	"fmt"

	"github.com/stratumdb/stratum/sqlparser"
)

// UnknownMutationCommandError reports a persisted command list carrying a
// kind the classifier does not accept even in full alter context. It is
// distinct from classification errors so callers can tell bad persisted
// data apart from a bad freshly parsed statement.
type UnknownMutationCommandError struct {
	Kind sqlparser.AlterKind
}

func (e *UnknownMutationCommandError) Error() string {
	return fmt.Sprintf("unknown mutation command type: %s", e.Kind)
}

// DuplicateColumnAssignmentError reports an UPDATE command assigning the
// same column more than once.
type DuplicateColumnAssignmentError struct {
	Column string
}

func (e *DuplicateColumnAssignmentError) Error() string {
	return fmt.Sprintf("multiple assignments in the single statement to column `%s`", e.Column)
}
