package sqlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlterCommandList_Kinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind AlterKind
	}{
		{"delete", "DELETE WHERE x > 1", KindDelete},
		{"delete in partition", "DELETE IN PARTITION 201805 WHERE x > 1", KindDelete},
		{"update", "UPDATE a = a + 1 WHERE b = 2", KindUpdate},
		{"materialize index", "MATERIALIZE INDEX idx_a", KindMaterializeIndex},
		{"materialize statistic", "MATERIALIZE STATISTIC a, b", KindMaterializeStatistic},
		{"materialize projection", "MATERIALIZE PROJECTION proj IN PARTITION 7", KindMaterializeProjection},
		{"materialize column", "MATERIALIZE COLUMN c", KindMaterializeColumn},
		{"materialize ttl", "MATERIALIZE TTL", KindMaterializeTTL},
		{"modify column", "MODIFY COLUMN c Nullable(Int32)", KindModifyColumn},
		{"drop column", "DROP COLUMN c", KindDropColumn},
		{"clear column", "CLEAR COLUMN c IN PARTITION 3", KindDropColumn},
		{"drop index", "DROP INDEX idx_a", KindDropIndex},
		{"drop statistic", "DROP STATISTIC a, b", KindDropStatistic},
		{"drop projection", "DROP PROJECTION proj", KindDropProjection},
		{"rename column", "RENAME COLUMN a TO b", KindRenameColumn},
		{"add column", "ADD COLUMN c Int64", KindAddColumn},
		{"comment column", "COMMENT COLUMN c 'a note'", KindCommentColumn},
		{"modify ttl", "MODIFY TTL created_at + INTERVAL 30 DAY", KindModifyTTL},
		{"modify setting", "MODIFY SETTING index_granularity = 8192", KindModifySetting},
		{"drop partition", "DROP PARTITION 201805", KindDropPartition},
		{"attach partition", "ATTACH PARTITION 201805", KindAttachPartition},
		{"freeze", "FREEZE", KindFreeze},
		{"freeze partition", "FREEZE PARTITION 201805", KindFreeze},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list, err := ParseAlterCommandList(tc.text)
			require.NoError(t, err)
			require.Len(t, list.Children, 1)
			cmd, ok := list.Children[0].(*AlterCommand)
			require.True(t, ok)
			assert.Equal(t, tc.kind, cmd.Kind)
		})
	}
}

func TestParseAlterCommandList_CanonicalRoundTrip(t *testing.T) {
	// parse -> render must be a fixed point: re-parsing the rendered text
	// renders identically
	inputs := []string{
		"DELETE WHERE x > 1",
		"DELETE IN PARTITION 201805 WHERE toDate(ts) < today()",
		"UPDATE a = a + 1, b = concat(b, 'x') IN PARTITION 5 WHERE id IN (1, 2, 3)",
		"MATERIALIZE INDEX idx_a IN PARTITION 3",
		"MATERIALIZE STATISTIC a, b IN PARTITION 3",
		"MATERIALIZE TTL IN PARTITION 3",
		"MODIFY COLUMN c Decimal(10, 2)",
		"CLEAR COLUMN c IN PARTITION 3",
		"RENAME COLUMN a TO b",
		"COMMENT COLUMN c 'it''s fine'",
		"DELETE WHERE x = 1, DROP COLUMN y, RENAME COLUMN a TO b",
		"ADD COLUMN c Nullable(String), MODIFY SETTING ttl_only_drop_parts = 1",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			list, err := ParseAlterCommandList(input)
			require.NoError(t, err)
			rendered := String(list)

			reparsed, err := ParseAlterCommandList(rendered)
			require.NoError(t, err)
			assert.Equal(t, rendered, String(reparsed))
			assert.Equal(t, len(list.Children), len(reparsed.Children))
		})
	}
}

func TestParseUpdate_Assignments(t *testing.T) {
	cmd, err := ParseAlterCommand("UPDATE a = 1, b = a + 2, c = 'x, y' WHERE id = 5")
	require.NoError(t, err)

	require.Len(t, cmd.Assignments, 3)
	assert.Equal(t, "a", cmd.Assignments[0].ColumnName)
	assert.Equal(t, "1", cmd.Assignments[0].Expression.Text)
	assert.Equal(t, "b", cmd.Assignments[1].ColumnName)
	assert.Equal(t, "a + 2", cmd.Assignments[1].Expression.Text)
	assert.Equal(t, "c", cmd.Assignments[2].ColumnName)
	assert.Equal(t, "id = 5", cmd.Predicate.Text)
	assert.Nil(t, cmd.Partition)
}

func TestParseUpdate_FollowedByCommand(t *testing.T) {
	// the comma before DELETE separates commands, not assignments
	list, err := ParseAlterCommandList("UPDATE a = 1 WHERE b = 2, DELETE WHERE c = 3")
	require.NoError(t, err)
	require.Len(t, list.Children, 2)
	assert.Equal(t, KindUpdate, list.Children[0].(*AlterCommand).Kind)
	assert.Equal(t, KindDelete, list.Children[1].(*AlterCommand).Kind)
}

func TestParseModifyColumn_Declaration(t *testing.T) {
	cmd, err := ParseAlterCommand("MODIFY COLUMN price Decimal(10, 2)")
	require.NoError(t, err)
	require.NotNil(t, cmd.ColumnDecl)
	assert.Equal(t, "price", cmd.ColumnDecl.Name)
	assert.Equal(t, "Decimal(10, 2)", cmd.ColumnDecl.Type)
}

func TestParseStatisticColumns_StopsAtNextCommand(t *testing.T) {
	list, err := ParseAlterCommandList("DROP STATISTIC a, b, DELETE WHERE x = 1")
	require.NoError(t, err)
	require.Len(t, list.Children, 2)

	stat := list.Children[0].(*AlterCommand)
	require.Len(t, stat.StatisticColumns, 2)
	assert.Equal(t, "a", stat.StatisticColumns[0].Name)
	assert.Equal(t, "b", stat.StatisticColumns[1].Name)
}

func TestParseQuotedIdentifiers(t *testing.T) {
	cmd, err := ParseAlterCommand("RENAME COLUMN `weird name` TO plain")
	require.NoError(t, err)
	assert.Equal(t, "weird name", cmd.Column.Name)
	assert.Equal(t, "plain", cmd.RenameTo.Name)
	assert.Equal(t, "RENAME COLUMN `weird name` TO plain", cmd.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"unknown command", "OPTIMIZE TABLE t"},
		{"missing where", "DELETE x > 1"},
		{"missing predicate", "DELETE WHERE"},
		{"unbalanced parens", "DELETE WHERE f(x > 1"},
		{"unterminated string", "COMMENT COLUMN c 'oops"},
		{"rename missing to", "RENAME COLUMN a b"},
		{"materialize junk", "MATERIALIZE TABLE t"},
		{"trailing comma", "DELETE WHERE x = 1,"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAlterCommandList(tc.text)
			assert.Error(t, err)
		})
	}
}

func TestSyntaxErrorOffset(t *testing.T) {
	_, err := ParseAlterCommandList("DELETE WHRE x")
	require.Error(t, err)
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 7, syntaxErr.Pos)
}
