// Package mutation models the commands a table engine executes for a
// data-rewriting alter statement: classification of parsed alter-command
// nodes into typed mutation commands, the ordered command sequence of one
// mutation, its escaped textual codec, and the structural predicates the
// scheduler asks before running anything.
package mutation

import (
	"github.com/stratumdb/stratum/sqlparser"
	"github.com/stratumdb/stratum/types"
)

// Type tags a MutationCommand.
type Type int

const (
	TypeEmpty Type = iota
	TypeDelete
	TypeUpdate
	TypeMaterializeIndex
	TypeMaterializeStatistic
	TypeMaterializeProjection
	TypeMaterializeColumn
	TypeMaterializeTTL
	TypeReadColumn // modify-column re-materialization
	TypeDropColumn
	TypeDropIndex
	TypeDropStatistic
	TypeDropProjection
	TypeRenameColumn
	TypeAlterWithoutMutation // pure metadata change, kept for reconstruction
)

var typeNames = map[Type]string{
	TypeEmpty:                 "EMPTY",
	TypeDelete:                "DELETE",
	TypeUpdate:                "UPDATE",
	TypeMaterializeIndex:      "MATERIALIZE_INDEX",
	TypeMaterializeStatistic:  "MATERIALIZE_STATISTIC",
	TypeMaterializeProjection: "MATERIALIZE_PROJECTION",
	TypeMaterializeColumn:     "MATERIALIZE_COLUMN",
	TypeMaterializeTTL:        "MATERIALIZE_TTL",
	TypeReadColumn:            "READ_COLUMN",
	TypeDropColumn:            "DROP_COLUMN",
	TypeDropIndex:             "DROP_INDEX",
	TypeDropStatistic:         "DROP_STATISTIC",
	TypeDropProjection:        "DROP_PROJECTION",
	TypeRenameColumn:          "RENAME_COLUMN",
	TypeAlterWithoutMutation:  "ALTER_WITHOUT_MUTATION",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "EMPTY"
}

// MutationCommand is one classified alter command. Only the payload
// fields of its Type are set. AST retains the source node for exact
// reconstruction; it is never re-inspected after construction, and the
// command is immutable once built.
type MutationCommand struct {
	Type Type
	AST  *sqlparser.AlterCommand

	Predicate *sqlparser.Expr
	Partition *sqlparser.Expr

	ColumnName string
	RenameTo   string

	IndexName        string
	ProjectionName   string
	StatisticColumns []string

	// ColumnToUpdateExpression maps column name to its UPDATE expression.
	// Keys are unique; a duplicate assignment fails at construction.
	ColumnToUpdateExpression map[string]*sqlparser.Expr

	DataType *types.Type // READ_COLUMN target type

	// Clear marks a DROP_* command that physically clears partition data
	// instead of dropping metadata only.
	Clear bool
}

// IsBarrier reports whether the command must execute in isolation: a
// column rename changes name resolution for everything after it and must
// not be reordered or parallelized with neighboring commands.
func (c *MutationCommand) IsBarrier() bool {
	return c.Type == TypeRenameColumn
}

// FromAlterCommand classifies one parsed alter command. With
// allowAlterCommands set, the alter-only subset (modify/drop/rename of
// columns, indexes, statistics, projections) is accepted; otherwise those
// kinds report ok=false and the caller rejects them upstream. Any
// metadata-only alter kind falls back to ALTER_WITHOUT_MUTATION rather
// than failing, so a full statement's command list stays complete.
// Partition-manipulation kinds are never representable in a mutation and
// report ok=false.
func FromAlterCommand(node *sqlparser.AlterCommand, allowAlterCommands bool, resolver types.Resolver) (cmd *MutationCommand, ok bool, err error) {
	switch node.Kind {
	case sqlparser.KindDelete:
		return &MutationCommand{
			Type:      TypeDelete,
			AST:       node,
			Predicate: node.Predicate,
			Partition: node.Partition,
		}, true, nil

	case sqlparser.KindUpdate:
		cmd := &MutationCommand{
			Type:                     TypeUpdate,
			AST:                      node,
			Predicate:                node.Predicate,
			Partition:                node.Partition,
			ColumnToUpdateExpression: make(map[string]*sqlparser.Expr, len(node.Assignments)),
		}
		for _, a := range node.Assignments {
			if _, exists := cmd.ColumnToUpdateExpression[a.ColumnName]; exists {
				return nil, false, &DuplicateColumnAssignmentError{Column: a.ColumnName}
			}
			cmd.ColumnToUpdateExpression[a.ColumnName] = a.Expression
		}
		return cmd, true, nil

	case sqlparser.KindMaterializeIndex:
		return &MutationCommand{
			Type:      TypeMaterializeIndex,
			AST:       node,
			Partition: node.Partition,
			IndexName: node.Index.Name,
		}, true, nil

	case sqlparser.KindMaterializeStatistic:
		return &MutationCommand{
			Type:             TypeMaterializeStatistic,
			AST:              node,
			Partition:        node.Partition,
			StatisticColumns: identifierNames(node.StatisticColumns),
		}, true, nil

	case sqlparser.KindMaterializeProjection:
		return &MutationCommand{
			Type:           TypeMaterializeProjection,
			AST:            node,
			Partition:      node.Partition,
			ProjectionName: node.Projection.Name,
		}, true, nil

	case sqlparser.KindMaterializeColumn:
		return &MutationCommand{
			Type:       TypeMaterializeColumn,
			AST:        node,
			Partition:  node.Partition,
			ColumnName: node.Column.Name,
		}, true, nil

	case sqlparser.KindMaterializeTTL:
		return &MutationCommand{
			Type:      TypeMaterializeTTL,
			AST:       node,
			Partition: node.Partition,
		}, true, nil

	case sqlparser.KindModifyColumn:
		if !allowAlterCommands {
			return nil, false, nil
		}
		dataType, err := resolver.Get(node.ColumnDecl.Type)
		if err != nil {
			return nil, false, err
		}
		return &MutationCommand{
			Type:       TypeReadColumn,
			AST:        node,
			ColumnName: node.ColumnDecl.Name,
			DataType:   dataType,
		}, true, nil

	case sqlparser.KindDropColumn:
		if !allowAlterCommands {
			return nil, false, nil
		}
		return &MutationCommand{
			Type:       TypeDropColumn,
			AST:        node,
			ColumnName: node.Column.Name,
			Partition:  node.Partition,
			Clear:      node.Clear,
		}, true, nil

	case sqlparser.KindDropIndex:
		if !allowAlterCommands {
			return nil, false, nil
		}
		return &MutationCommand{
			Type:      TypeDropIndex,
			AST:       node,
			IndexName: node.Index.Name,
			Partition: node.Partition,
			Clear:     node.Clear,
		}, true, nil

	case sqlparser.KindDropStatistic:
		if !allowAlterCommands {
			return nil, false, nil
		}
		return &MutationCommand{
			Type:             TypeDropStatistic,
			AST:              node,
			StatisticColumns: identifierNames(node.StatisticColumns),
			Partition:        node.Partition,
			Clear:            node.Clear,
		}, true, nil

	case sqlparser.KindDropProjection:
		if !allowAlterCommands {
			return nil, false, nil
		}
		return &MutationCommand{
			Type:           TypeDropProjection,
			AST:            node,
			ProjectionName: node.Projection.Name,
			Partition:      node.Partition,
			Clear:          node.Clear,
		}, true, nil

	case sqlparser.KindRenameColumn:
		if !allowAlterCommands {
			return nil, false, nil
		}
		return &MutationCommand{
			Type:       TypeRenameColumn,
			AST:        node,
			ColumnName: node.Column.Name,
			RenameTo:   node.RenameTo.Name,
		}, true, nil

	default:
		if node.Kind.MetadataOnly() {
			return &MutationCommand{
				Type: TypeAlterWithoutMutation,
				AST:  node,
			}, true, nil
		}
		// part manipulation or an invalid kind
		return nil, false, nil
	}
}

func identifierNames(ids []*sqlparser.Identifier) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Name)
	}
	return names
}
