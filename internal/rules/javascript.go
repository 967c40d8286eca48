package rules

import "finlint/internal/models"

var (
	jsOutbound = ruleMeta{
		id:         "JS001",
		name:       "API Call in Loop",
		category:   models.CategoryOutboundCall,
		severity:   models.SeverityHigh,
		template:   "%s detected inside a loop. Each iteration makes a network request.",
		suggestion: "Move the API call outside the loop, or use Promise.all() after collecting all requests.",
	}
	jsDatabase = ruleMeta{
		id:         "JS002",
		name:       "Database Call in Loop",
		category:   models.CategoryDataRead,
		severity:   models.SeverityHigh,
		template:   "%s detected inside a loop. Each iteration queries the database.",
		suggestion: "Use batch operations or aggregate queries instead of individual calls per iteration.",
	}
	jsFanOut = ruleMeta{
		id:         "JS003",
		name:       "Async Fan-out in Loop",
		category:   models.CategoryOutboundCall,
		severity:   models.SeverityMedium,
		template:   "%s inside a loop creates unbounded concurrent operations.",
		suggestion: "Collect promises and use Promise.all() with concurrency limits, or use for...of with await.",
	}
	jsSerialization = ruleMeta{
		id:         "JS004",
		name:       "Serialization in Loop",
		category:   models.CategorySerialization,
		severity:   models.SeverityMedium,
		template:   "%s inside a loop. Repeated serialization is CPU-intensive.",
		suggestion: "Move serialization outside the loop if possible, or batch serialize.",
	}
	jsUnbounded = ruleMeta{
		id:         "JS005",
		name:       "Unbounded Query",
		category:   models.CategoryDataRead,
		severity:   models.SeverityMedium,
		template:   "%s without LIMIT or pagination. May return excessive data and incur high costs.",
		suggestion: "Add LIMIT or implement pagination to prevent full table scans.",
	}
)

// documentReceivers name the objects document-store driver and ODM calls
// hang off, as in db.collection("users"), UserModel or userRepo.
var documentReceivers = []string{"collection", "model", "repo", "db"}

var javascriptTables = &Tables{
	Language: models.LanguageJavaScript,
	DataAccess: concat(
		expand(jsDatabase, onReceivers(documentReceivers,
			pattern{method: "findbyid", label: "MongoDB findById()"},
			pattern{method: "findone", label: "MongoDB findOne()"},
			pattern{method: "findmany", label: "Database findMany()"},
			pattern{method: "find", label: "MongoDB find()"},
			pattern{method: "aggregate", label: "MongoDB aggregate()"},
		)...),
		expand(jsDatabase.withCategory(models.CategoryDataWrite), onReceivers(documentReceivers,
			pattern{method: "updateone", label: "MongoDB updateOne()"},
			pattern{method: "updatemany", label: "MongoDB updateMany()"},
			pattern{method: "deleteone", label: "MongoDB deleteOne()"},
			pattern{method: "insertone", label: "MongoDB insertOne()"},
		)...),
		expand(jsDatabase,
			pattern{"db", "query", "Database query()"},
			pattern{"pool", "query", "Database query()"},
			pattern{"client", "query", "Database query()"},
			pattern{"connection", "query", "Database query()"},
			pattern{"db", "execute", "Database execute()"},
			pattern{"connection", "execute", "Database execute()"},
			pattern{"dynamodb", "get", "DynamoDB operation"},
			pattern{"dynamodb", "query", "DynamoDB operation"},
			pattern{"dynamodb", "scan", "DynamoDB operation"},
			pattern{"dynamodb", "getitem", "DynamoDB getItem()"},
		),
		expand(jsDatabase.withCategory(models.CategoryDataWrite),
			pattern{"dynamodb", "put", "DynamoDB operation"},
			pattern{"dynamodb", "putitem", "DynamoDB putItem()"},
		),
		expand(jsDatabase,
			pattern{"redis", "get", "Redis operation"},
			pattern{"redis", "hget", "Redis operation"},
		),
		expand(jsDatabase.withCategory(models.CategoryDataWrite),
			pattern{"redis", "set", "Redis operation"},
			pattern{"redis", "hset", "Redis operation"},
		),
	),
	OutboundCall: concat(
		expand(jsOutbound,
			pattern{"", "fetch", "fetch() call"},
			pattern{"axios", "get", "axios HTTP call"},
			pattern{"axios", "post", "axios HTTP call"},
			pattern{"axios", "put", "axios HTTP call"},
			pattern{"axios", "delete", "axios HTTP call"},
			pattern{"axios", "patch", "axios HTTP call"},
			pattern{"axios", "request", "axios HTTP call"},
			pattern{"", "axios", "axios HTTP call"},
			pattern{"http", "get", "HTTP library call"},
			pattern{"http", "post", "HTTP library call"},
			pattern{"http", "request", "HTTP library call"},
			pattern{"", "request", "request() call"},
			pattern{"", "got", "got() HTTP call"},
			pattern{"superagent", "get", "superagent HTTP call"},
			pattern{"superagent", "post", "superagent HTTP call"},
			pattern{"$", "ajax", "jQuery AJAX call"},
			pattern{"$", "get", "jQuery HTTP call"},
			pattern{"$", "post", "jQuery HTTP call"},
		),
		expand(jsFanOut,
			pattern{"new", "promise", "Promise creation"},
			pattern{"", "async", "async arrow function"},
		),
	),
	Serialization: expand(jsSerialization,
		pattern{"json", "parse", "JSON.parse()"},
		pattern{"json", "stringify", "JSON.stringify()"},
	),
	UnboundedQuery: expand(jsUnbounded,
		pattern{"db", "query", "Database query"},
		pattern{"pool", "query", "Database query"},
		pattern{"client", "query", "Database query"},
		pattern{"connection", "query", "Database query"},
		pattern{"sequelize", "query", "Sequelize query"},
		pattern{"knex", "raw", "Knex raw query"},
		pattern{"db", "execute", "Database execute"},
		pattern{"connection", "execute", "Database execute"},
	),
	HotPath: HotPathMarkers{
		Window: 20,
		Annotations: mustCompile(
			`\b(app|router|server|api)\s*\.\s*(get|post|put|delete|patch|all|use)\s*\(`,
			`\b(exports|module\.exports)\s*\.\s*handler\b`,
			`@(Get|Post|Put|Delete|Patch|Controller|Cron|EventPattern|MessagePattern)\s*\(`,
			`\bcron\.schedule\s*\(`,
		),
		Definitions: mustCompile(
			`\bfunction\s*\*?\s*(\w+)\s*\(`,
			`\b(\w+)\s*[:=]\s*(?:async\s+)?function\b`,
			`\b(\w+)\s*[:=]\s*(?:async\s*)?\([^)]*\)\s*=>`,
			`\b(\w+)\s*[:=]\s*(?:async\s+)?\w+\s*=>`,
			`^\s*(?:async\s+|static\s+|public\s+|private\s+|protected\s+)*(\w+)\s*\([^)]*\)\s*\{`,
		),
		Keywords: hotKeywords("middleware"),
		Names: mustCompile(
			`^(get|post|put|delete|patch)[A-Z]`,
			`^on(Request|Response|Message|Event)`,
		),
	},
}
