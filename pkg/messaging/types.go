package messaging

type ChangeTopic string

const (
	SearchTopic  ChangeTopic = "catalog_search"
	FailureTopic ChangeTopic = "catalog_failure"
)
