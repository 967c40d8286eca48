package rules

import "finlint/internal/models"

var (
	javaSpringData = ruleMeta{
		id:         "JAVA001",
		name:       "Repository Call in Loop",
		category:   models.CategoryDataRead,
		severity:   models.SeverityHigh,
		template:   "%s inside a loop. Each iteration hits the database (N+1 query).",
		suggestion: "Use findAllById() or a JOIN FETCH query to load all entities in one round trip.",
	}
	javaHTTP = ruleMeta{
		id:         "JAVA002",
		name:       "HTTP Call in Loop",
		category:   models.CategoryOutboundCall,
		severity:   models.SeverityHigh,
		template:   "%s inside a loop. Each iteration makes a network request.",
		suggestion: "Use a batch endpoint, or issue requests concurrently with bounded parallelism.",
	}
	javaSerialization = ruleMeta{
		id:         "JAVA003",
		name:       "Serialization in Loop",
		category:   models.CategorySerialization,
		severity:   models.SeverityMedium,
		template:   "%s inside a loop. Repeated serialization is CPU-intensive.",
		suggestion: "Serialize the whole collection once, and reuse a single ObjectMapper instance.",
	}
	javaJDBC = ruleMeta{
		id:         "JAVA004",
		name:       "JDBC Call in Loop",
		category:   models.CategoryDataRead,
		severity:   models.SeverityHigh,
		template:   "%s inside a loop. Each iteration executes a SQL statement.",
		suggestion: "Use batchUpdate() or an IN clause to execute one statement for the whole batch.",
	}
	javaAWS = ruleMeta{
		id:         "JAVA005",
		name:       "AWS SDK Call in Loop",
		category:   models.CategoryOutboundCall,
		severity:   models.SeverityHigh,
		template:   "%s inside a loop. Each iteration is a billed AWS request.",
		suggestion: "Use the batch variant of the operation (BatchGetItem, SendMessageBatch, etc.).",
	}
	javaUnbounded = ruleMeta{
		id:         "JAVA006",
		name:       "Unbounded Query",
		category:   models.CategoryDataRead,
		severity:   models.SeverityMedium,
		template:   "%s without LIMIT or pagination. May return excessive data and incur high costs.",
		suggestion: "Add LIMIT, use setMaxResults(), or page with a Pageable.",
	}
)

var javaTables = &Tables{
	Language: models.LanguageJava,
	DataAccess: concat(
		expand(javaSpringData,
			pattern{"repository", "find", "Spring Data Repository find"},
			pattern{"repository", "get", "Spring Data Repository get"},
		),
		expand(javaSpringData.withCategory(models.CategoryDataWrite),
			pattern{"repository", "save", "Spring Data Repository save"},
			pattern{"repository", "delete", "Spring Data Repository delete"},
		),
		expand(javaSpringData,
			pattern{"repo", "find", "Repository find"},
			pattern{"dao", "find", "DAO find"},
			pattern{"dao", "get", "DAO get"},
			pattern{"entitymanager", "find", "JPA EntityManager find"},
			pattern{"entitymanager", "createquery", "JPA EntityManager createQuery"},
		),
		expand(javaSpringData.withCategory(models.CategoryDataWrite),
			pattern{"entitymanager", "persist", "JPA EntityManager persist"},
			pattern{"entitymanager", "merge", "JPA EntityManager merge"},
		),
		expand(javaSpringData,
			pattern{"session", "get", "Hibernate Session get"},
			pattern{"session", "load", "Hibernate Session load"},
			pattern{"session", "createquery", "Hibernate Session createQuery"},
		),
		expand(javaJDBC,
			pattern{"jdbctemplate", "queryforobject", "JdbcTemplate queryForObject()"},
			pattern{"jdbctemplate", "queryforlist", "JdbcTemplate queryForList()"},
			pattern{"jdbctemplate", "query", "JdbcTemplate query()"},
		),
		expand(javaJDBC.withCategory(models.CategoryDataWrite),
			pattern{"jdbctemplate", "update", "JdbcTemplate update()"},
		),
		expand(javaJDBC,
			pattern{"jdbctemplate", "execute", "JdbcTemplate execute()"},
			pattern{"statement", "executequery", "Statement executeQuery()"},
			pattern{"statement", "execute", "Statement execute()"},
			pattern{"connection", "preparestatement", "Connection prepareStatement()"},
		),
		expand(javaAWS.withCategory(models.CategoryDataRead),
			pattern{"dynamodb", "getitem", "DynamoDB getItem()"},
			pattern{"dynamodb", "query", "DynamoDB query()"},
			pattern{"dynamodb", "scan", "DynamoDB scan()"},
		),
		expand(javaAWS.withCategory(models.CategoryDataWrite),
			pattern{"dynamodb", "putitem", "DynamoDB putItem()"},
		),
	),
	OutboundCall: concat(
		expand(javaHTTP,
			pattern{"resttemplate", "getforobject", "RestTemplate getForObject()"},
			pattern{"resttemplate", "getforentity", "RestTemplate getForEntity()"},
			pattern{"resttemplate", "postforobject", "RestTemplate postForObject()"},
			pattern{"resttemplate", "postforentity", "RestTemplate postForEntity()"},
			pattern{"resttemplate", "exchange", "RestTemplate exchange()"},
			pattern{"resttemplate", "execute", "RestTemplate execute()"},
			pattern{"resttemplate", "delete", "RestTemplate delete()"},
			pattern{"resttemplate", "put", "RestTemplate put()"},
			pattern{"webclient", "get", "WebClient GET"},
			pattern{"webclient", "post", "WebClient POST"},
			pattern{"httpclient", "execute", "HttpClient execute"},
			pattern{"httpclient", "send", "HttpClient send"},
			pattern{"", "openconnection", "URL openConnection()"},
		),
		expand(javaAWS,
			pattern{"s3client", "getobject", "S3 getObject()"},
			pattern{"s3client", "putobject", "S3 putObject()"},
			pattern{"snsclient", "publish", "SNS publish()"},
			pattern{"sqsclient", "sendmessage", "SQS sendMessage()"},
			pattern{"lambdaclient", "invoke", "Lambda invoke()"},
		),
	),
	Serialization: expand(javaSerialization,
		pattern{"objectmapper", "writevalueasstring", "ObjectMapper writeValueAsString()"},
		pattern{"objectmapper", "writevalueasbytes", "ObjectMapper writeValueAsBytes()"},
		pattern{"objectmapper", "readvalue", "ObjectMapper readValue()"},
		pattern{"objectmapper", "readtree", "ObjectMapper readTree()"},
		pattern{"mapper", "writevalueasstring", "ObjectMapper writeValueAsString()"},
		pattern{"mapper", "readvalue", "ObjectMapper readValue()"},
		pattern{"gson", "tojson", "Gson toJson()"},
		pattern{"gson", "fromjson", "Gson fromJson()"},
	),
	UnboundedQuery: expand(javaUnbounded,
		pattern{"jdbctemplate", "queryforlist", "JdbcTemplate queryForList()"},
		pattern{"jdbctemplate", "query", "JdbcTemplate query()"},
		pattern{"statement", "executequery", "Statement executeQuery()"},
		pattern{"entitymanager", "createquery", "JPA createQuery()"},
		pattern{"entitymanager", "createnativequery", "JPA createNativeQuery()"},
		pattern{"session", "createquery", "Hibernate createQuery()"},
	),
	HotPath: HotPathMarkers{
		Window: 30,
		Annotations: mustCompile(
			`@(Get|Post|Put|Delete|Patch|Request)Mapping\b`,
			`@(Rest)?Controller\b`,
			`@(Scheduled|EventListener|KafkaListener|RabbitListener|SqsListener|JmsListener)\b`,
			`@(GET|POST|PUT|DELETE|Path)\b`,
		),
		Definitions: mustCompile(
			`^\s*(?:(?:public|private|protected|static|final|synchronized|abstract|default)\s+)*(?:<[^>]+>\s+)?[\w.<>\[\]?, ]+?\s+(\w+)\s*\([^;]*$`,
		),
		Keywords: hotKeywords("invoke"),
	},
}
