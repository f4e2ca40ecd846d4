package extract

// defaultCategories is the built-in vocabulary for data-analytics roles on
// Polish job boards. Lowercase canonical names only.
var defaultCategories = []Category{
	{Name: "Database", Skills: []string{
		"sql", "mysql", "postgresql", "oracle", "nosql", "mongodb", "database", "ms access",
		"sqlite", "redshift", "snowflake", "microsoft sql server", "teradata", "clickhouse",
	}},
	{Name: "Microsoft BI & Excel", Skills: []string{
		"excel", "power query", "power pivot", "vba", "macros", "pivot tables",
		"excel formulas", "spreadsheets", "m code", "ssrs", "ssis", "ssas",
		"power apps", "power automate", "powerpoint", "office 365",
	}},
	{Name: "Visualization", Skills: []string{
		"power bi", "tableau", "qlik", "looker", "data studio", "powerbi", "dax",
		"matplotlib", "seaborn", "plotly", "excel charts", "dashboard", "reporting", "d3.js",
		"grafana", "kibana", "google charts", "quicksight",
	}},
	{Name: "Programming", Skills: []string{
		"python", "r", "java", "scala", "c#", ".net", "javascript", "typescript",
		"vba", "pandas", "numpy", "jupyter", "scikit-learn", "tidyverse", "julia",
		"sql scripting", "pl/sql", "t-sql",
	}},
	{Name: "Data Processing", Skills: []string{
		"etl", "spark", "hadoop", "kafka", "airflow", "data engineering", "big data",
		"data cleansing", "data transformation", "data modeling", "data warehouse",
		"databricks", "dbt", "talend", "informatica",
	}},
	{Name: "Analytics & Statistics", Skills: []string{
		"statistics", "regression", "forecasting", "analytics", "analysis", "spss",
		"sas", "stata", "hypothesis testing", "a/b testing", "statistical",
		"time series", "clustering", "segmentation", "correlation",
	}},
	{Name: "Cloud", Skills: []string{
		"aws", "azure", "gcp", "google cloud", "cloud", "onedrive", "sharepoint",
		"snowflake", "databricks", "lambda", "s3",
	}},
	{Name: "Business Intelligence", Skills: []string{
		"business intelligence", "bi", "cognos", "business objects", "microstrategy",
		"olap", "data mart", "reporting", "kpi", "metrics", "domo", "sisense",
	}},
	{Name: "Machine Learning and AI", Skills: []string{
		"machine learning", "scikit-learn", "tensorflow", "keras", "pytorch", "deep learning",
		"xgboost", "lightgbm", "nlp", "computer vision", "anomaly detection", "feature engineering",
	}},
	{Name: "Data Governance and Quality", Skills: []string{
		"data governance", "data quality", "data integrity", "data validation",
		"master data management", "metadata", "data lineage", "data catalog",
	}},
	{Name: "Data Privacy and Security", Skills: []string{
		"data privacy", "gdpr", "data security", "compliance", "pii", "data anonymization",
	}},
	{Name: "Project Management and Soft Skills", Skills: []string{
		"project management", "agile", "scrum", "communication", "presentation", "storytelling",
		"collaboration", "stakeholder management", "requirements gathering", "jira", "confluence",
		"atlassian",
	}},
	{Name: "Version Control", Skills: []string{
		"git", "github", "gitlab", "version control", "bitbucket",
	}},
	{Name: "Data Integration and APIs", Skills: []string{
		"api", "rest api", "data integration", "web scraping", "etl tools", "soap",
		"ip rotation services",
	}},
	{Name: "ERP and CRM Systems", Skills: []string{
		"sap", "oracle", "salesforce", "dynamics", "erp", "crm", "workday",
	}},
}

// defaultVariants maps canonical names to the spellings boards actually use,
// Polish forms included.
var defaultVariants = map[string][]string{
	"sql":        {"sql", "structured query language", "sql server", "t-sql", "pl/sql", "transact-sql", "język sql", "zapytania sql"},
	"mysql":      {"mysql", "my sql", "maria db", "mariadb"},
	"postgresql": {"postgresql", "postgres", "postgre sql", "postgre", "psql"},
	"oracle":     {"oracle", "oracle db", "oracle database", "baza oracle", "baza danych oracle"},
	"nosql":      {"nosql", "no sql", "no-sql", "nierelacyjne bazy danych"},
	"mongodb":    {"mongodb", "mongo", "mongo db"},
	"database":   {"database", "baza danych", "bazy danych", "bd", "db", "rdbms"},
	"ms access":  {"ms access", "microsoft access", "access", "msaccess"},
	"sqlite":     {"sqlite", "sqlite3"},
	"redshift":   {"redshift", "amazon redshift", "aws redshift"},
	"teradata":   {"teradata", "tera data"},

	"excel":          {"excel", "microsoft excel", "ms excel", "arkusz excel", "arkusze excel", "arkusze kalkulacyjne", "microsoft 365"},
	"power query":    {"power query", "powerquery", "zapytania power query", "m code", "język m", "m language"},
	"power pivot":    {"power pivot", "powerpivot", "tabele przestawne excel"},
	"vba":            {"vba", "visual basic for applications", "makra excel", "excel macros", "visual basic", "kod vba"},
	"macros":         {"macros", "makra"},
	"pivot tables":   {"pivot tables", "tabele przestawne", "tabele pivot", "pivoty", "tabele pivotowe"},
	"excel formulas": {"excel formulas", "formuły excel", "funkcje excel", "wzory excel", "excel functions"},
	"ssrs":           {"ssrs", "sql server reporting services", "reporting services"},
	"ssis":           {"ssis", "sql server integration services", "integration services"},
	"ssas":           {"ssas", "sql server analysis services", "analysis services"},
	"power apps":     {"power apps", "powerapps", "microsoft power apps"},
	"power automate": {"power automate", "microsoft power automate", "flow", "microsoft flow"},

	"power bi":    {"power bi", "powerbi", "power-bi", "microsoft power bi", "ms power bi", "power bi desktop", "power bi service"},
	"tableau":     {"tableau", "tableau desktop", "tableau server", "tableau online", "tableau prep"},
	"qlik":        {"qlik", "qlikview", "qlik sense", "qlik sense enterprise"},
	"looker":      {"looker", "google looker", "looker studio"},
	"data studio": {"data studio", "google data studio", "datastudio"},
	"dax":         {"dax", "data analysis expressions", "wyrażenia analizy danych", "formuły dax", "funkcje dax"},
	"dashboard":   {"dashboard", "dashboards", "pulpit", "pulpity", "kokpit", "panel analityczny", "panele analityczne"},
	"reporting":   {"reporting", "raportowanie", "tworzenie raportów", "generowanie raportów"},

	"python":     {"python", "język python", "python programming", "programowanie w python", "pythona"},
	"r":          {"r", "język r", "r programming", "rstudio", "programowanie w r"},
	"java":       {"java", "język java", "java programming", "programowanie w java"},
	"c#":         {"c#", "c sharp", "csharp", "c-sharp", ".net c#"},
	".net":       {".net", ".net framework", ".net core", "dotnet", "dot net", "microsoft .net"},
	"javascript": {"javascript", "js", "język javascript", "es6", "ecmascript"},
	"pandas":     {"pandas", "python pandas", "biblioteka pandas"},
	"numpy":      {"numpy", "python numpy", "biblioteka numpy"},
	"jupyter":    {"jupyter", "jupyter notebook", "jupyter lab", "jupyterlab", "notatniki jupyter"},

	"etl":            {"etl", "extract transform load", "ekstrakcja transformacja ładowanie", "procesy etl"},
	"spark":          {"spark", "apache spark", "pyspark", "spark streaming", "spark sql"},
	"hadoop":         {"hadoop", "apache hadoop", "hadoop ecosystem", "hdfs", "ekosystem hadoop"},
	"data cleansing": {"data cleansing", "czyszczenie danych", "oczyszczanie danych", "data cleaning"},
	"data warehouse": {"data warehouse", "hurtownia danych", "dwh", "data warehousing"},

	"statistics":  {"statistics", "statystyka", "analizy statystyczne", "statistical analysis"},
	"regression":  {"regression", "regresja", "analiza regresji", "regresja liniowa", "linear regression"},
	"forecasting": {"forecasting", "prognozowanie", "prognozy", "analiza szeregów czasowych", "time series forecasting"},
	"analytics":   {"analytics", "analityka", "analiza danych", "data analytics"},
	"analysis":    {"analysis", "analiza", "analizy", "analizowanie"},
	"spss":        {"spss", "ibm spss", "spss statistics"},

	"aws":        {"aws", "amazon web services", "amazon aws", "ec2", "aws cloud"},
	"azure":      {"azure", "microsoft azure", "azure cloud", "ms azure"},
	"gcp":        {"gcp", "google cloud platform", "cloud platform"},
	"cloud":      {"cloud", "chmura", "cloud computing", "przetwarzanie w chmurze"},
	"sharepoint": {"sharepoint", "microsoft sharepoint", "share point", "ms sharepoint"},

	"business intelligence": {"business intelligence", "bi", "analityka biznesowa", "inteligencja biznesowa"},
	"olap":                  {"olap", "on-line analytical processing", "analityczne przetwarzanie online", "kostki olap"},
	"kpi":                   {"kpi", "key performance indicator", "kluczowe wskaźniki efektywności", "wskaźniki kpi"},

	"project management": {"project management", "zarządzanie projektami", "pm", "project manager", "kierownik projektu"},
	"agile":              {"agile", "agile methodology", "metodyka agile", "zwinne metodyki", "metodyki zwinne"},
	"scrum":              {"scrum", "metodyka scrum", "scrum master", "scrum framework"},
	"jira":               {"jira", "atlassian jira", "jira software"},
	"confluence":         {"confluence", "atlassian confluence", "dokumentacja confluence"},
	"atlassian":          {"atlassian", "narzędzia atlassian", "atlassian tools", "atlassian suite"},

	"git":    {"git", "system git", "kontrola wersji git", "git version control"},
	"github": {"github", "git hub", "serwis github"},

	"api":                  {"api", "application programming interface", "interfejs programistyczny aplikacji", "apis"},
	"rest api":             {"rest api", "restful api", "restful", "rest apis", "restowe api"},
	"data integration":     {"data integration", "integracja danych", "integrowanie danych", "systemy integracji"},
	"web scraping":         {"web scraping", "screen scraping", "scraping", "ekstrakcja danych z www"},
	"ip rotation services": {"ip rotation services", "rotacja ip", "zmiana ip", "proxy rotation"},

	"sap":        {"sap", "sap erp", "system sap", "sap system"},
	"salesforce": {"salesforce", "sales force", "salesforce crm"},
	"dynamics":   {"dynamics", "microsoft dynamics", "dynamics 365", "ms dynamics"},
	"erp":        {"erp", "enterprise resource planning", "planowanie zasobów przedsiębiorstwa", "system erp"},
	"crm":        {"crm", "customer relationship management", "zarządzanie relacjami z klientami", "system crm"},
}
