package rules

import "finlint/internal/models"

var (
	pyDatabase = ruleMeta{
		id:         "PY001",
		name:       "Database Call in Loop",
		category:   models.CategoryDataRead,
		severity:   models.SeverityHigh,
		template:   "%s called inside a loop. Each iteration triggers a database operation.",
		suggestion: "Use JOIN or IN query to batch database operations, or use batch APIs like batch_get_item.",
	}
	pyOutbound = ruleMeta{
		id:         "PY002",
		name:       "API Call in Loop",
		category:   models.CategoryOutboundCall,
		severity:   models.SeverityHigh,
		template:   "%s called inside a loop. Each iteration makes an external API call.",
		suggestion: "Use a bulk or batch API endpoint to reduce call count.",
	}
	pySerialization = ruleMeta{
		id:         "PY003",
		name:       "Serialization in Loop",
		category:   models.CategorySerialization,
		severity:   models.SeverityMedium,
		template:   "%s called inside a loop. Repeated serialization is CPU-intensive.",
		suggestion: "Move serialization outside the loop if possible, or serialize a batch at once.",
	}
	pyUnbounded = ruleMeta{
		id:         "PY004",
		name:       "Unbounded Query",
		category:   models.CategoryDataRead,
		severity:   models.SeverityMedium,
		template:   "%s without LIMIT or pagination. May return excessive data and incur high costs.",
		suggestion: "Add LIMIT or implement pagination to prevent full table scans.",
	}
)

var pythonTables = &Tables{
	Language: models.LanguagePython,
	DataAccess: concat(
		expand(pyDatabase,
			pattern{"dynamodb", "get_item", "DynamoDB get_item"},
			pattern{"dynamodb", "query", "DynamoDB query"},
			pattern{"dynamodb", "scan", "DynamoDB scan"},
		),
		expand(pyDatabase.withCategory(models.CategoryDataWrite),
			pattern{"dynamodb", "put_item", "DynamoDB put_item"},
		),
		expand(pyDatabase,
			pattern{"table", "get_item", "DynamoDB get_item"},
			pattern{"table", "query", "DynamoDB query"},
			pattern{"table", "scan", "DynamoDB scan"},
		),
		expand(pyDatabase.withCategory(models.CategoryDataWrite),
			pattern{"table", "put_item", "DynamoDB put_item"},
			pattern{"table", "update_item", "DynamoDB update_item"},
			pattern{"table", "delete_item", "DynamoDB delete_item"},
		),
		expand(pyDatabase,
			pattern{"session", "query", "SQLAlchemy query"},
			pattern{"session", "execute", "SQLAlchemy execute"},
			pattern{"session", "get", "SQLAlchemy get"},
			pattern{"db", "get", "Database get"},
			pattern{"db", "query", "Database query"},
			pattern{"db", "execute", "Database execute"},
			pattern{"db", "find", "Database find"},
			pattern{"db", "find_one", "Database find_one"},
			pattern{"collection", "find", "MongoDB find"},
			pattern{"collection", "find_one", "MongoDB find_one"},
			pattern{"collection", "aggregate", "MongoDB aggregate"},
		),
		expand(pyDatabase.withCategory(models.CategoryDataWrite),
			pattern{"collection", "insert_one", "MongoDB insert_one"},
			pattern{"collection", "update_one", "MongoDB update_one"},
		),
		expand(pyDatabase,
			pattern{"redis", "get", "Redis get"},
			pattern{"redis", "hget", "Redis hget"},
			pattern{"redis", "hgetall", "Redis hgetall"},
		),
		expand(pyDatabase.withCategory(models.CategoryDataWrite),
			pattern{"redis", "set", "Redis set"},
		),
		expand(pyDatabase,
			pattern{"cursor", "execute", "SQL cursor execute"},
			pattern{"cursor", "fetchone", "SQL cursor fetchone"},
			pattern{"cursor", "fetchall", "SQL cursor fetchall"},
		),
	),
	OutboundCall: expand(pyOutbound,
		pattern{"requests", "get", "HTTP GET request"},
		pattern{"requests", "post", "HTTP POST request"},
		pattern{"requests", "put", "HTTP PUT request"},
		pattern{"requests", "delete", "HTTP DELETE request"},
		pattern{"requests", "patch", "HTTP PATCH request"},
		pattern{"httpx", "get", "HTTPX GET request"},
		pattern{"httpx", "post", "HTTPX POST request"},
		pattern{"client", "get", "HTTP client GET"},
		pattern{"client", "post", "HTTP client POST"},
		pattern{"session", "get", "aiohttp GET"},
		pattern{"session", "post", "aiohttp POST"},
		pattern{"urllib", "urlopen", "urllib request"},
		pattern{"request", "urlopen", "urllib request"},
		pattern{"client", "invoke", "AWS Lambda invoke"},
		pattern{"sns", "publish", "AWS SNS publish"},
		pattern{"sqs", "send_message", "AWS SQS send"},
	),
	Serialization: expand(pySerialization,
		pattern{"json", "dumps", "JSON serialization"},
		pattern{"json", "loads", "JSON deserialization"},
		pattern{"pickle", "dumps", "Pickle serialization"},
		pattern{"pickle", "loads", "Pickle deserialization"},
		pattern{"yaml", "dump", "YAML serialization"},
		pattern{"yaml", "load", "YAML deserialization"},
		pattern{"msgpack", "packb", "MessagePack serialization"},
		pattern{"msgpack", "unpackb", "MessagePack deserialization"},
	),
	UnboundedQuery: expand(pyUnbounded,
		pattern{"cursor", "execute", "SQL query"},
		pattern{"cursor", "fetchall", "SQL fetchall"},
		pattern{"session", "query", "ORM query"},
		pattern{"session", "execute", "SQLAlchemy execute"},
		pattern{"collection", "find", "MongoDB find"},
		pattern{"db", "query", "Database query"},
		pattern{"db", "execute", "Database execute"},
		pattern{"db", "find", "Database find"},
		pattern{"table", "scan", "DynamoDB scan"},
	),
	HotPath: HotPathMarkers{
		Window: 20,
		Annotations: mustCompile(
			`^\s*@\w*(app|router|blueprint|bp|api)\.(route|get|post|put|delete|patch|websocket)\b`,
			`^\s*@(\w+\.)?(shared_task|task|periodic_task|scheduled_job)\b`,
			`^\s*@(\w+\.)?(receiver|subscriber|consumer)\b`,
		),
		Definitions: mustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
		Keywords:    hotKeywords(),
	},
}
