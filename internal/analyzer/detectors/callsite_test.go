package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCalls(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []CallSite
	}{
		{
			name: "method call",
			line: `  const user = await db.findOne({ id });`,
			want: []CallSite{{Receiver: "db", Method: "findone"}},
		},
		{
			name: "bare call after await",
			line: `const res = await fetch(url);`,
			want: []CallSite{{Receiver: "", Method: "fetch"}},
		},
		{
			name: "chained call uses inner callee",
			line: `client.db().collection(name)`,
			want: []CallSite{
				{Receiver: "client", Method: "db"},
				{Receiver: "db", Method: "collection"},
			},
		},
		{
			name: "constructor",
			line: `return new Promise(resolve => setTimeout(resolve, 10));`,
			want: []CallSite{
				{Receiver: "new", Method: "promise"},
				{Receiver: "", Method: "settimeout"},
			},
		},
		{
			name: "string literal argument",
			line: `pool.query("SELECT * FROM Users", [])`,
			want: []CallSite{{Receiver: "pool", Method: "query", Query: "select * from users", HasQuery: true}},
		},
		{
			name: "template literal drops interpolation",
			line: "db.query(`SELECT * FROM t WHERE id = ${id}`)",
			want: []CallSite{{Receiver: "db", Method: "query", Query: "select * from t where id = ", HasQuery: true}},
		},
		{
			name: "concatenated argument is not static",
			line: `db.query("SELECT * FROM " + table)`,
			want: []CallSite{{Receiver: "db", Method: "query"}},
		},
		{
			name: "keywords are not calls",
			line: `if (ready) { while (x) {} }`,
			want: nil,
		},
		{
			name: "java declaration is not a call",
			line: `public User loadUser(long id) {`,
			want: nil,
		},
		{
			name: "calls inside strings are ignored",
			line: `log("fetch(url) failed"); // retry()`,
			want: []CallSite{{Receiver: "", Method: "log", Query: "fetch(url) failed", HasQuery: true}},
		},
		{
			name: "comment line",
			line: `   // repository.findById(id)`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCalls(tt.line))
		})
	}
}

func TestMaskLineKeepsOffsets(t *testing.T) {
	line := `a("x(y)") /* c() */ b()`
	masked := maskLine(line)
	require.Len(t, masked, len(line))
	assert.Equal(t, `a("    ")           b()`, masked)
}
