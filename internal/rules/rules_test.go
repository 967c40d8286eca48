package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finlint/internal/models"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		recvPat  string
		methPat  string
		receiver string
		method   string
		want     bool
	}{
		{"exact", "cursor", "execute", "cursor", "execute", true},
		{"method contains pattern", "table", "get_item", "table", "batch_get_item", true},
		{"pattern contains method", "db", "find_one", "db", "find", true},
		{"receiver contains pattern", "table", "scan", "orders_table", "scan", true},
		{"pattern contains receiver", "dynamodb", "get", "db", "get", true},
		{"empty receiver pattern matches anything", "", "fetch", "window", "fetch", true},
		{"empty receiver matches any pattern", "requests", "get", "", "get", true},
		{"method mismatch", "requests", "get", "requests", "head", false},
		{"receiver mismatch", "requests", "get", "cache", "get", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.recvPat, tt.methPat, tt.receiver, tt.method))
		})
	}
}

func TestFirstMatchHonoursTableOrder(t *testing.T) {
	table := For(models.LanguagePython).DataAccess

	rule, ok := FirstMatch(table, "session", "get")
	require.True(t, ok)
	assert.Equal(t, "SQLAlchemy get", rule.Label)

	rule, ok = FirstMatch(table, "table", "put_item")
	require.True(t, ok)
	assert.Equal(t, models.CategoryDataWrite, rule.Category)
	assert.Equal(t, "PY001", rule.RuleID)

	_, ok = FirstMatch(table, "logger", "info")
	assert.False(t, ok)
}

func TestConstructorsOnlyMatchConstructorRules(t *testing.T) {
	js := For(models.LanguageJavaScript)

	_, ok := FirstMatch(js.DataAccess, Constructor, "date")
	assert.False(t, ok)

	rule, ok := FirstMatch(js.OutboundCall, Constructor, "promise")
	require.True(t, ok)
	assert.Equal(t, "JS003", rule.RuleID)

	_, ok = FirstMatch(js.DataAccess, "map", "delete")
	assert.False(t, ok)
	rule, ok = FirstMatch(js.DataAccess, "usermodel", "findone")
	require.True(t, ok)
	assert.Equal(t, "MongoDB findOne()", rule.Label)
}

func TestDescriptionUsesLabel(t *testing.T) {
	rule, ok := FirstMatch(For(models.LanguagePython).OutboundCall, "requests", "get")
	require.True(t, ok)
	assert.Equal(t, "HTTP GET request called inside a loop. Each iteration makes an external API call.", rule.Description())
}

func TestForUnsupportedLanguage(t *testing.T) {
	assert.Nil(t, For(models.LanguageUnknown))
	for _, lang := range models.SupportedLanguages {
		tables := For(lang)
		require.NotNil(t, tables, lang)
		assert.Equal(t, lang, tables.Language)
		assert.NotEmpty(t, tables.DataAccess)
		assert.NotEmpty(t, tables.OutboundCall)
		assert.NotEmpty(t, tables.Serialization)
		assert.NotEmpty(t, tables.UnboundedQuery)
		assert.Positive(t, tables.HotPath.Window)
	}
}

func TestWithoutLeavesSharedTablesIntact(t *testing.T) {
	full := For(models.LanguageJavaScript)
	before := len(full.OutboundCall)

	filtered := full.Without([]Concern{ConcernSerialization}, []string{"JS003"})

	assert.Empty(t, filtered.Serialization)
	assert.NotContains(t, filtered.RuleIDs(), "JS003")
	assert.Contains(t, filtered.RuleIDs(), "JS001")
	assert.Len(t, full.OutboundCall, before)
	assert.NotEmpty(t, full.Serialization)
}

func TestRuleIDs(t *testing.T) {
	assert.Equal(t, []string{"PY001", "PY002", "PY003", "PY004"}, For(models.LanguagePython).RuleIDs())
	assert.ElementsMatch(t,
		[]string{"JAVA001", "JAVA002", "JAVA003", "JAVA004", "JAVA005", "JAVA006"},
		For(models.LanguageJava).RuleIDs())
}

func TestHasPagination(t *testing.T) {
	assert.True(t, HasPagination("select * from users limit 10"))
	assert.True(t, HasPagination("select * from users offset 20"))
	assert.True(t, HasPagination("select top 5 * from users"))
	assert.False(t, HasPagination("select * from users"))
}

func TestHotName(t *testing.T) {
	py := For(models.LanguagePython).HotPath
	assert.True(t, py.HotName("handle_request"))
	assert.True(t, py.HotName("Lambda_Handler"))
	assert.False(t, py.HotName("compute_totals"))
	assert.False(t, py.HotName(""))

	js := For(models.LanguageJavaScript).HotPath
	assert.True(t, js.HotName("getUsers"))
	assert.True(t, js.HotName("onMessage"))
	assert.True(t, js.HotName("authMiddleware"))
	assert.False(t, js.HotName("getter"))
}
