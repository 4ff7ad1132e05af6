package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumdb/stratum/sqlparser"
	"github.com/stratumdb/stratum/types"
)

func mustClassifyList(t *testing.T, text string) MutationCommands {
	t.Helper()
	list, err := sqlparser.ParseAlterCommandList(text)
	require.NoError(t, err)
	cmds, err := FromAlterCommandList(list, types.Default())
	require.NoError(t, err)
	return cmds
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	inputs := []string{
		"DELETE WHERE x > 1",
		"UPDATE a = a + 1, b = concat(b, 'x') WHERE id IN (1, 2, 3)",
		"MATERIALIZE INDEX idx IN PARTITION 3, MATERIALIZE TTL",
		"MODIFY COLUMN price Decimal(10, 2), DROP COLUMN obsolete, RENAME COLUMN a TO b",
		"ADD COLUMN c Nullable(String), DELETE WHERE c IS NULL",
		"CLEAR COLUMN c IN PARTITION 7, DROP STATISTIC a, b",
		"COMMENT COLUMN c 'line\\nbreak'",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			cmds := mustClassifyList(t, input)

			decoded, err := DecodeText(cmds.EncodeText(), types.Default())
			require.NoError(t, err)

			require.Equal(t, len(cmds), len(decoded))
			for i := range cmds {
				assert.Equal(t, cmds[i].Type, decoded[i].Type, "command %d", i)
				assert.Equal(t, cmds[i].ColumnName, decoded[i].ColumnName)
				assert.Equal(t, cmds[i].RenameTo, decoded[i].RenameTo)
				assert.Equal(t, cmds[i].IndexName, decoded[i].IndexName)
				assert.Equal(t, cmds[i].ProjectionName, decoded[i].ProjectionName)
				assert.Equal(t, cmds[i].StatisticColumns, decoded[i].StatisticColumns)
				assert.Equal(t, cmds[i].Clear, decoded[i].Clear)
				assert.Equal(t, exprText(cmds[i].Predicate), exprText(decoded[i].Predicate))
				assert.Equal(t, exprText(cmds[i].Partition), exprText(decoded[i].Partition))
				if cmds[i].DataType != nil {
					require.NotNil(t, decoded[i].DataType)
					assert.Equal(t, cmds[i].DataType.Name, decoded[i].DataType.Name)
				}
				require.Equal(t, len(cmds[i].ColumnToUpdateExpression), len(decoded[i].ColumnToUpdateExpression))
				for col, expr := range cmds[i].ColumnToUpdateExpression {
					assert.Equal(t, expr.Text, decoded[i].ColumnToUpdateExpression[col].Text)
				}
			}

			// encoding the decoded sequence is a fixed point
			assert.Equal(t, cmds.EncodeText(), decoded.EncodeText())
		})
	}
}

func exprText(e *sqlparser.Expr) string {
	if e == nil {
		return ""
	}
	return e.Text
}

func TestEncodeText_Escaped(t *testing.T) {
	cmds := mustClassifyList(t, "COMMENT COLUMN c 'a\\nb'")
	encoded := string(cmds.EncodeText())

	// the embedded newline escape doubles so the field stays one line
	assert.NotContains(t, encoded, "\n")
	assert.Contains(t, encoded, `\\n`)

	// display rendering keeps the single-level escape
	assert.Contains(t, cmds.String(), `\n`)
	assert.NotContains(t, cmds.String(), `\\n`)
}

func TestDecodeText_UnknownCommandKind(t *testing.T) {
	for _, text := range []string{"DROP PARTITION 201805", "ATTACH PARTITION 5", "DELETE WHERE x = 1, FREEZE"} {
		cmds, err := DecodeText([]byte(text), types.Default())
		require.Error(t, err, text)
		assert.Nil(t, cmds, "no partial sequence on failure")

		var unknownErr *UnknownMutationCommandError
		require.ErrorAs(t, err, &unknownErr)
	}
}

func TestDecodeText_MalformedInput(t *testing.T) {
	_, err := DecodeText([]byte("DELETE FROM WHERE"), types.Default())
	assert.Error(t, err)

	_, err = DecodeText([]byte(`DELETE WHERE x = 1\q`), types.Default())
	assert.Error(t, err)
}

func TestAST_MetadataFiltering(t *testing.T) {
	cmds := mustClassifyList(t, "ADD COLUMN c Int64, DELETE WHERE c = 1")

	full := cmds.AST(true)
	require.Len(t, full.Children, 2)
	assert.Equal(t, sqlparser.KindAddColumn, full.Children[0].(*sqlparser.AlterCommand).Kind)
	assert.Equal(t, sqlparser.KindDelete, full.Children[1].(*sqlparser.AlterCommand).Kind)

	dataOnly := cmds.AST(false)
	require.Len(t, dataOnly.Children, 1)
	assert.Equal(t, sqlparser.KindDelete, dataOnly.Children[0].(*sqlparser.AlterCommand).Kind)
}

func TestAST_ClonesRetainedNodes(t *testing.T) {
	cmds := mustClassifyList(t, "DELETE WHERE x = 1")
	rebuilt := cmds.AST(true)
	require.Len(t, rebuilt.Children, 1)
	assert.NotSame(t, cmds[0].AST, rebuilt.Children[0].(*sqlparser.AlterCommand))
	assert.Equal(t, cmds[0].AST.String(), rebuilt.Children[0].(*sqlparser.AlterCommand).String())
}

func TestHasNonEmptyMutationCommands(t *testing.T) {
	assert.False(t, mustClassifyList(t, "ADD COLUMN c Int64").HasNonEmptyMutationCommands())
	assert.False(t, mustClassifyList(t, "ADD COLUMN c Int64, MODIFY SETTING x = 1").HasNonEmptyMutationCommands())
	assert.True(t, mustClassifyList(t, "ADD COLUMN c Int64, DROP COLUMN x").HasNonEmptyMutationCommands())
	assert.True(t, mustClassifyList(t, "DELETE WHERE x = 1").HasNonEmptyMutationCommands())
	assert.False(t, MutationCommands{}.HasNonEmptyMutationCommands())
	assert.False(t, MutationCommands{&MutationCommand{Type: TypeEmpty}}.HasNonEmptyMutationCommands())
}

func TestContainsBarrierCommand(t *testing.T) {
	assert.True(t, mustClassifyList(t, "DELETE WHERE x = 1, RENAME COLUMN a TO b").ContainsBarrierCommand())
	assert.False(t, mustClassifyList(t, "DELETE WHERE x = 1, UPDATE a = 1 WHERE b = 2").ContainsBarrierCommand())
	assert.False(t, MutationCommands{}.ContainsBarrierCommand())
}

func TestString_OneLine(t *testing.T) {
	cmds := mustClassifyList(t, "DELETE WHERE x = 1, RENAME COLUMN a TO b")
	assert.Equal(t, "DELETE WHERE x = 1, RENAME COLUMN a TO b", cmds.String())
}
